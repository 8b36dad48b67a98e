package styles

import "github.com/charmbracelet/lipgloss"

// 지갑 대시보드 팔레트, 밝은/어두운 터미널 모두 대응
var (
	Accent  = lipgloss.AdaptiveColor{Light: "#5B4BDB", Dark: "#8C7CFF"}
	Surface = lipgloss.AdaptiveColor{Light: "#E4E1F5", Dark: "#2A2640"}
	Ink     = lipgloss.AdaptiveColor{Light: "#1C1A29", Dark: "#EDEBFA"}
	Dim     = lipgloss.AdaptiveColor{Light: "#8A87A0", Dark: "#6E6A86"}
	Good    = lipgloss.AdaptiveColor{Light: "#1E9E6A", Dark: "#3DDC97"}
	Caution = lipgloss.AdaptiveColor{Light: "#B7791F", Dark: "#F6C453"}
	Bad     = lipgloss.AdaptiveColor{Light: "#C53030", Dark: "#FF6B6B"}
	Testnet = lipgloss.AdaptiveColor{Light: "#2B6CB0", Dark: "#63B3ED"}
)

var (
	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Surface).
			Background(Accent).
			Padding(0, 2)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Accent).
			Underline(true)

	DimStyle    = lipgloss.NewStyle().Foreground(Dim)
	GoodStyle   = lipgloss.NewStyle().Foreground(Good)
	BadStyle    = lipgloss.NewStyle().Foreground(Bad)
	AccentStyle = lipgloss.NewStyle().Foreground(Accent)

	// 체인 선택 줄
	ChainActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Ink).
				Background(Surface).
				Padding(0, 1)

	ChainIdleStyle = lipgloss.NewStyle().
			Foreground(Dim).
			Padding(0, 1)

	TestnetBadgeStyle = lipgloss.NewStyle().
				Foreground(Testnet).
				Italic(true)

	// 계정 목록
	AccountHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Dim).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(Surface)

	AccountRowStyle = lipgloss.NewStyle().
			Foreground(Ink).
			PaddingLeft(2)

	AccountCursorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Accent).
				Border(lipgloss.ThickBorder(), false, false, false, true).
				BorderForeground(Accent).
				PaddingLeft(1)

	BalanceStyle = lipgloss.NewStyle().
			Foreground(Good).
			Bold(true)

	PromptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Caution).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(Dim).
			MarginTop(1)
)

// StateBadge 월렛 상태 라벨을 배지로 렌더링
func StateBadge(state string) string {
	bg := Dim
	switch state {
	case "UNLOCKED":
		bg = Good
	case "LOCKED":
		bg = Caution
	case "OFFLINE":
		bg = Bad
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(Surface).
		Background(bg).
		Padding(0, 1).
		Render(state)
}

// LevelStyle zap 레벨(대문자)에 맞는 글자색
func LevelStyle(level string) lipgloss.Style {
	switch level {
	case "DEBUG":
		return DimStyle
	case "WARN":
		return lipgloss.NewStyle().Foreground(Caution)
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return BadStyle.Bold(true)
	default:
		return AccentStyle
	}
}
