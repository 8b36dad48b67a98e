package dashboard

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/abcfe/abcfe-wallet/internal/dashboard/api"
	"github.com/abcfe/abcfe-wallet/internal/dashboard/components"
	"github.com/abcfe/abcfe-wallet/internal/dashboard/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Config는 대시보드 설정
type Config struct {
	Host       string
	Port       int
	LogPath    string
	RefreshSec int
}

// AccountInfo는 계정별 표시 정보
type AccountInfo struct {
	api.WalletAccount
	Balance string // wei, 조회 전이면 빈 문자열
	Error   string
}

// keyMap은 단축키 정의
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Chain   key.Binding
	Unlock  key.Binding
	Lock    key.Binding
	Account key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Chain, k.Unlock, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Refresh},
		{k.Chain, k.Account},
		{k.Unlock, k.Lock},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "이전 계정"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "다음 계정"),
	),
	Chain: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "체인 전환"),
	),
	Unlock: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "잠금 해제"),
	),
	Lock: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "잠금"),
	),
	Account: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "계정 추가"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "새로고침"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "도움말"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "종료"),
	),
}

// Model은 Bubbletea 모델
type Model struct {
	config    Config
	client    *api.Client
	online    bool
	lastErr   string
	notice    string
	wallet    *api.WalletStatus
	accounts  []AccountInfo
	chains    []api.ChainInfo
	wsClients int
	selected  int
	width     int
	height    int
	activity  *components.LogTail
	keys      keyMap
	help      help.Model
	input     textinput.Model
	unlocking bool
	quitting  bool
}

// Run은 대시보드 실행
func Run(config Config) error {
	m := initialModel(config, api.NewClient(config.Host, config.Port))
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func initialModel(config Config, client *api.Client) Model {
	if config.RefreshSec <= 0 {
		config.RefreshSec = 1
	}

	ti := textinput.New()
	ti.Placeholder = "password"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 128
	ti.Width = 40

	return Model{
		config:    config,
		client:    client,
		activity:  components.NewLogTail(config.LogPath, 10),
		keys:      keys,
		help:      help.New(),
		input:     ti,
	}
}

// tickMsg는 주기적 업데이트 메시지
type tickMsg time.Time

// walletUpdateMsg는 월렛/체인 상태 업데이트 메시지
type walletUpdateMsg struct {
	wallet    *api.WalletStatus
	chains    []api.ChainInfo
	wsClients int
	err       error
}

// balanceMsg는 계정 잔액 조회 결과
type balanceMsg struct {
	address string
	balance string
	err     error
}

// actionMsg는 사용자 동작(전환/잠금 등) 결과
type actionMsg struct {
	notice string
	err    error
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.config.RefreshSec),
		m.fetchWallet(),
	)
}

func tickCmd(seconds int) tea.Cmd {
	return tea.Tick(time.Duration(seconds)*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchWallet() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		w, err := client.GetWallet()
		if err != nil {
			return walletUpdateMsg{err: err}
		}
		chains, err := client.GetChains()
		if err != nil {
			return walletUpdateMsg{err: err}
		}

		msg := walletUpdateMsg{wallet: w, chains: chains}
		if ws, err := client.GetWSStatus(); err == nil {
			msg.wsClients = ws.ConnectedClients
		}
		return msg
	}
}

func (m Model) fetchBalances() tea.Cmd {
	if m.wallet == nil || !m.wallet.Unlocked {
		return nil
	}
	client := m.client
	var cmds []tea.Cmd
	for _, acc := range m.accounts {
		address := acc.Address
		cmds = append(cmds, func() tea.Msg {
			balance, err := client.GetBalance(address)
			return balanceMsg{address: address, balance: balance, err: err}
		})
	}
	return tea.Batch(cmds...)
}

func (m Model) action(notice string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{notice: notice, err: fn()}
	}
}

// nextChain은 활성 체인 다음 항목 반환 (id 순서, 순환)
func (m Model) nextChain() (api.ChainInfo, bool) {
	if len(m.chains) < 2 {
		return api.ChainInfo{}, false
	}
	for i, c := range m.chains {
		if c.Active {
			return m.chains[(i+1)%len(m.chains)], true
		}
	}
	return m.chains[0], true
}

func (m Model) activeChain() *api.ChainInfo {
	for i := range m.chains {
		if m.chains[i].Active {
			return &m.chains[i]
		}
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.unlocking {
			return m.updateUnlock(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll

		case key.Matches(msg, m.keys.Refresh):
			return m, tea.Batch(m.fetchWallet(), m.fetchBalances())

		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
			}

		case key.Matches(msg, m.keys.Down):
			if m.selected < len(m.accounts)-1 {
				m.selected++
			}

		case key.Matches(msg, m.keys.Chain):
			if next, ok := m.nextChain(); ok {
				return m, m.action("switched to "+next.Name, func() error {
					return m.client.SwitchChain(next.ChainID)
				})
			}

		case key.Matches(msg, m.keys.Unlock):
			if m.wallet != nil && m.wallet.Created && !m.wallet.Unlocked {
				m.unlocking = true
				m.input.Focus()
				return m, textinput.Blink
			}

		case key.Matches(msg, m.keys.Lock):
			return m, m.action("wallet locked", m.client.Lock)

		case key.Matches(msg, m.keys.Account):
			return m, m.action("account added", func() error {
				_, err := m.client.AddAccount()
				return err
			})
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		cmds = append(cmds, tickCmd(m.config.RefreshSec))
		cmds = append(cmds, m.fetchWallet())
		m.activity.Poll()

	case walletUpdateMsg:
		if msg.err != nil {
			m.online = false
			m.lastErr = msg.err.Error()
			break
		}
		m.online = true
		m.lastErr = ""
		m.chains = msg.chains
		m.wsClients = msg.wsClients
		if m.applyWallet(msg.wallet) {
			cmds = append(cmds, m.fetchBalances())
		}

	case balanceMsg:
		for i := range m.accounts {
			if m.accounts[i].Address != msg.address {
				continue
			}
			if msg.err != nil {
				m.accounts[i].Error = msg.err.Error()
			} else {
				m.accounts[i].Balance = msg.balance
				m.accounts[i].Error = ""
			}
		}

	case actionMsg:
		if msg.err != nil {
			m.notice = styles.BadStyle.Render("✗ " + msg.err.Error())
		} else {
			m.notice = styles.GoodStyle.Render("✓ " + msg.notice)
			// 잔액은 체인/계정이 바뀌면 다시 조회
			for i := range m.accounts {
				m.accounts[i].Balance = ""
			}
		}
		cmds = append(cmds, m.fetchWallet())
	}

	return m, tea.Batch(cmds...)
}

// applyWallet은 계정 목록을 갱신하고 잔액 재조회가 필요한지 반환
func (m *Model) applyWallet(w *api.WalletStatus) bool {
	prevUnlocked := m.wallet != nil && m.wallet.Unlocked
	m.wallet = w

	known := make(map[string]AccountInfo, len(m.accounts))
	for _, a := range m.accounts {
		known[a.Address] = a
	}

	changed := len(w.Accounts) != len(m.accounts) || w.Unlocked != prevUnlocked
	accounts := make([]AccountInfo, 0, len(w.Accounts))
	for _, a := range w.Accounts {
		info, ok := known[a.Address]
		if !ok {
			info = AccountInfo{WalletAccount: a}
			changed = true
		}
		if info.Balance == "" {
			changed = true
		}
		accounts = append(accounts, info)
	}
	m.accounts = accounts

	if m.selected >= len(m.accounts) {
		m.selected = len(m.accounts) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	return changed && w.Unlocked
}

func (m Model) updateUnlock(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		password := m.input.Value()
		m.unlocking = false
		m.input.SetValue("")
		m.input.Blur()
		return m, m.action("wallet unlocked", func() error {
			return m.client.Unlock(password)
		})
	case "esc":
		m.unlocking = false
		m.input.SetValue("")
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// walletState는 상태 라벨 반환
func (m Model) walletState() string {
	switch {
	case !m.online:
		return "OFFLINE"
	case m.wallet == nil || !m.wallet.Created:
		return "NO WALLET"
	case m.wallet.Unlocked:
		return "UNLOCKED"
	default:
		return "LOCKED"
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// 헤더
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// 체인 목록
	b.WriteString(m.renderChains())
	b.WriteString("\n")

	// 계정 테이블
	b.WriteString(m.renderAccountsTable())
	b.WriteString("\n")

	if m.unlocking {
		prompt := styles.SectionStyle.Render("Unlock wallet") + "\n" +
			m.input.View() + "\n" +
			styles.DimStyle.Render("enter 확인 · esc 취소")
		b.WriteString(styles.PromptStyle.Render(prompt))
		b.WriteString("\n")
	} else if m.notice != "" {
		b.WriteString("  " + m.notice + "\n")
	}

	// 로그 뷰어
	b.WriteString(m.activity.View(m.width))
	b.WriteString("\n")

	b.WriteString(styles.FooterStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderHeader() string {
	title := styles.BannerStyle.Render("ABCFe Wallet")

	state := m.walletState()
	status := styles.StateBadge(state)
	if m.wallet != nil && m.wallet.Name != "" {
		status = m.wallet.Name + " " + status
	}
	if m.online {
		status += styles.DimStyle.Render(fmt.Sprintf(" | dapps: %d", m.wsClients))
	} else if m.lastErr != "" {
		status += styles.BadStyle.Render(" | " + m.lastErr)
	}

	// 오른쪽 정렬
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}

	return title + strings.Repeat(" ", gap) + status
}

func (m Model) renderChains() string {
	var b strings.Builder
	b.WriteString(styles.SectionStyle.Render("Chains"))
	b.WriteString("\n")

	if len(m.chains) == 0 {
		b.WriteString(styles.DimStyle.Render("  -"))
		return b.String()
	}

	var parts []string
	for _, c := range m.chains {
		label := fmt.Sprintf("%s (%s)", c.Name, c.ChainID)
		if c.Testnet {
			label += " " + styles.TestnetBadgeStyle.Render("testnet")
		}
		if c.Active {
			parts = append(parts, styles.ChainActiveStyle.Render("● "+label))
		} else {
			parts = append(parts, styles.ChainIdleStyle.Render("○ "+label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, parts...))
	return b.String()
}

func (m Model) renderAccountsTable() string {
	var b strings.Builder

	// 테이블 헤더
	header := fmt.Sprintf("%-4s %-44s %-20s %s", "#", "Address", "Path", "Balance")
	b.WriteString(styles.AccountHeaderStyle.Render(header))
	b.WriteString("\n")

	if len(m.accounts) == 0 {
		msg := "계정 없음"
		if m.wallet != nil && m.wallet.Created && !m.wallet.Unlocked {
			msg = "잠금 상태 - u 키로 해제"
		}
		b.WriteString(styles.DimStyle.Render("  " + msg))
		b.WriteString("\n")
		return b.String()
	}

	symbol, decimals := "ETH", uint8(18)
	if c := m.activeChain(); c != nil {
		symbol, decimals = c.Symbol, c.Decimals
	}

	// 계정 행
	for i, acc := range m.accounts {
		balance := "…"
		switch {
		case acc.Error != "":
			balance = "error"
		case acc.Balance != "":
			balance = styles.BalanceStyle.Render(FormatUnits(acc.Balance, decimals) + " " + symbol)
		}

		row := fmt.Sprintf("%-4d %-44s %-20s ", acc.Index, acc.Address, acc.Path)
		if i == m.selected {
			b.WriteString(styles.AccountCursorStyle.Render(row) + balance)
		} else {
			b.WriteString(styles.AccountRowStyle.Render(row) + balance)
		}
		b.WriteString("\n")
	}

	if m.selected < len(m.accounts) && m.accounts[m.selected].Error != "" {
		b.WriteString(styles.BadStyle.Render("  " + m.accounts[m.selected].Error))
		b.WriteString("\n")
	}

	return b.String()
}

// FormatUnits는 10진수 최소 단위 문자열을 소수점 표기로 변환
// 잘못된 입력은 그대로 반환
func FormatUnits(amount string, decimals uint8) string {
	v, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return amount
	}
	if decimals == 0 {
		return v.String()
	}

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(v, unit, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}

	fs := frac.String()
	fs = strings.Repeat("0", int(decimals)-len(fs)) + fs
	if len(fs) > 6 {
		fs = fs[:6]
	}
	fs = strings.TrimRight(fs, "0")
	if fs == "" {
		return whole.String()
	}
	return whole.String() + "." + fs
}
