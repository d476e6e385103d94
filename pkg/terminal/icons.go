package terminal

// Icons for terminal output
const (
	IconSuccess = "✅"
	IconError   = "❌"
	IconWarning = "⚠️"
	IconInfo    = "ℹ️"
	IconRocket  = "🚀"
	IconBox     = "📦"
	IconKey     = "🔑"
	IconCache   = "💾"
	IconSpeed   = "⚡"
	IconCheck   = "✓"
	IconCross   = "✗"
	IconArrow   = "→"
	IconDot     = "•"
)
