package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/goobie/glua-bridge/internal/vmtest"
	"github.com/goobie/glua-bridge/lua"
	"github.com/goobie/glua-bridge/taskqueue"
)

// The explorer drives a real handle against the in-process fake VM, so
// every command below exercises the same code paths a module would run
// in the game, minus the game.
type explorerModel struct {
	l      lua.State
	queue  *taskqueue.Queue
	input  textinput.Model
	output string
	failed bool
	refs   []lua.Ref
	state  explorerState
}

type explorerState int

const (
	stateRepl explorerState = iota
	stateHelp
)

func newExplorerModel() (*explorerModel, error) {
	vmtest.Bootstrap()
	l, err := lua.NewState()
	if err != nil {
		return nil, fmt.Errorf("new state: %w", err)
	}

	// The fake VM boots with empty globals; the queue needs the host's
	// timer library, so the explorer stands it up. The operator plays
	// the think loop through the pump command.
	l.Register("timer", []lua.Reg{
		{Name: "Create", Func: func(lua.State) int32 { return 0 }},
		{Name: "Remove", Func: func(lua.State) int32 { return 0 }},
	})
	l.Pop()

	q := taskqueue.New()
	q.Load(l)

	ti := textinput.New()
	ti.Placeholder = "push 42"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()

	return &explorerModel{l: l, queue: q, input: ti, output: `type "help" for commands`}, nil
}

func (m *explorerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *explorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.state == stateHelp {
				m.state = stateRepl
			}

		case "enter":
			if m.state == stateHelp {
				m.state = stateRepl
				break
			}
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			switch line {
			case "":
			case "quit", "exit", "q":
				return m, tea.Quit
			case "help":
				m.state = stateHelp
			default:
				out, err := m.run(line)
				if err != nil {
					m.output, m.failed = err.Error(), true
				} else {
					m.output, m.failed = out, false
				}
			}
		}
	}

	if m.state == stateRepl {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// run executes one explorer command against the live handle.
func (m *explorerModel) run(line string) (string, error) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "push":
		raw := strings.TrimSpace(strings.TrimPrefix(line, "push"))
		if raw == "" {
			return "", fmt.Errorf("push needs a value")
		}
		return m.push(raw), nil

	case "pop":
		n := int32(1)
		if len(args) > 0 {
			v, err := parseIndex(args[0])
			if err != nil {
				return "", err
			}
			n = v
		}
		if n < 0 || n > m.l.Top() {
			return "", fmt.Errorf("stack holds %d values", m.l.Top())
		}
		m.l.PopN(n)
		return fmt.Sprintf("popped %d", n), nil

	case "dup":
		index, err := optIndex(args, -1)
		if err != nil {
			return "", err
		}
		if !m.onStack(index) {
			return "", fmt.Errorf("no value at %d", index)
		}
		m.l.PushValue(index)
		return "duplicated", nil

	case "type":
		index, err := optIndex(args, -1)
		if err != nil {
			return "", err
		}
		return m.l.TypeName(m.l.TypeOf(index)), nil

	case "len":
		index, err := optIndex(args, -1)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(int(m.l.Len(index))), nil

	case "table":
		m.l.NewTable()
		return "pushed empty table", nil

	case "ref":
		if m.l.Top() == 0 {
			return "", fmt.Errorf("nothing to reference")
		}
		r := m.l.Reference()
		m.refs = append(m.refs, r)
		return fmt.Sprintf("ref %d (popped the value)", r), nil

	case "getref":
		r, err := parseRef(args)
		if err != nil {
			return "", err
		}
		if !m.l.FromReference(r) {
			return "", fmt.Errorf("ref %d did not resolve", r)
		}
		return fmt.Sprintf("pushed ref %d", r), nil

	case "unref":
		r, err := parseRef(args)
		if err != nil {
			return "", err
		}
		m.l.Dereference(r)
		for i, held := range m.refs {
			if held == r {
				m.refs = append(m.refs[:i], m.refs[i+1:]...)
				break
			}
		}
		return fmt.Sprintf("released ref %d", r), nil

	case "global":
		if len(args) != 1 {
			return "", fmt.Errorf("global needs a name")
		}
		m.l.GetGlobal(args[0])
		return fmt.Sprintf("pushed _G.%s (%s)", args[0], m.l.TypeName(m.l.TypeOf(-1))), nil

	case "setglobal":
		if len(args) != 1 {
			return "", fmt.Errorf("setglobal needs a name")
		}
		if m.l.Top() == 0 {
			return "", fmt.Errorf("nothing to assign")
		}
		m.l.SetGlobal(args[0])
		return fmt.Sprintf("_G.%s set (popped the value)", args[0]), nil

	case "load":
		src := strings.TrimSpace(strings.TrimPrefix(line, "load"))
		if err := m.l.LoadString(src); err != nil {
			return "", err
		}
		return "chunk pushed", nil

	case "call":
		nargs, err := optIndex(args, 0)
		if err != nil {
			return "", err
		}
		nres := int32(lua.MultRet)
		if len(args) > 1 {
			if nres, err = parseIndex(args[1]); err != nil {
				return "", err
			}
		}
		if m.l.Top() < nargs+1 {
			return "", fmt.Errorf("need a function and %d arguments on the stack", nargs)
		}
		before := m.l.Top()
		if err := m.l.PCall(nargs, nres, 0); err != nil {
			return "", err
		}
		return fmt.Sprintf("ok, %+d stack", m.l.Top()-before), nil

	case "defer":
		text := strings.TrimSpace(strings.TrimPrefix(line, "defer"))
		if text == "" {
			text = "deferred"
		}
		m.queue.Schedule("explorer", func(cl lua.State) {
			cl.PushString(text)
			cl.SetGlobal("LAST_DEFER")
		})
		return fmt.Sprintf("queued (%d pending); pump to drain", m.queue.Len()), nil

	case "pump":
		n := m.queue.Len()
		m.queue.RunCallbacks(m.l)
		return fmt.Sprintf("drained %d", n), nil

	case "clear":
		m.l.SetTop(0)
		return "stack cleared", nil

	default:
		return "", fmt.Errorf("unknown command %q", cmd)
	}
}

// push interprets raw as nil, a boolean, a number, or a string, in that
// order; quotes force the string reading.
func (m *explorerModel) push(raw string) string {
	switch {
	case raw == "nil":
		m.l.PushNil()
		return "pushed nil"
	case raw == "true", raw == "false":
		m.l.PushBoolean(raw == "true")
		return "pushed " + raw
	case len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"':
		m.l.PushString(raw[1 : len(raw)-1])
		return "pushed string"
	default:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			m.l.PushNumber(n)
			return "pushed number"
		}
		m.l.PushString(raw)
		return "pushed string"
	}
}

func (m *explorerModel) onStack(index int32) bool {
	if index < 0 {
		index = m.l.Top() + index + 1
	}
	return index >= 1 && index <= m.l.Top()
}

func optIndex(args []string, fallback int32) (int32, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	return parseIndex(args[0])
}

func parseIndex(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return int32(v), nil
}

func parseRef(args []string) (lua.Ref, error) {
	if len(args) != 1 {
		return lua.NoRef, fmt.Errorf("which ref?")
	}
	v, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return lua.NoRef, fmt.Errorf("bad ref %q", args[0])
	}
	return lua.Ref(v), nil
}

func (m *explorerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("glua explorer"))
	b.WriteString(dimStyle.Render("  fake VM, real handle"))
	b.WriteString("\n\n")

	if m.state == stateHelp {
		b.WriteString(helpText)
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("enter/esc back"))
		return b.String()
	}

	b.WriteString(m.stackView())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %d   %s %d   %s %d\n",
		dimStyle.Render("stack"), m.l.Top(),
		dimStyle.Render("refs"), len(m.refs),
		dimStyle.Render("queued"), m.queue.Len()))
	b.WriteString("\n")

	if m.output != "" {
		if m.failed {
			b.WriteString(badStyle.Render(m.output))
		} else {
			b.WriteString(okStyle.Render(m.output))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("help • quit • ctrl+c"))
	return b.String()
}

func (m *explorerModel) stackView() string {
	top := m.l.Top()
	if top == 0 {
		return dimStyle.Render("  (stack empty)") + "\n"
	}
	var b strings.Builder
	for i := top; i >= 1; i-- {
		b.WriteString(fmt.Sprintf("  %3d %4d  %-9s %s\n",
			i, i-top-1,
			pathStyle.Render(m.l.TypeName(m.l.TypeOf(i))),
			preview(m.l, i)))
	}
	return b.String()
}

// preview renders a one-line reading of the value at index.
func preview(l lua.State, index int32) string {
	switch l.TypeOf(index) {
	case lua.TypeNil:
		return "nil"
	case lua.TypeBoolean:
		return strconv.FormatBool(l.Boolean(index))
	case lua.TypeNumber:
		return strconv.FormatFloat(l.Number(index), 'g', -1, 64)
	case lua.TypeString:
		s, _ := l.String(index)
		if len(s) > 40 {
			s = s[:37] + "..."
		}
		return strconv.Quote(s)
	case lua.TypeTable:
		return fmt.Sprintf("#%d %#x", l.Len(index), l.ToPointer(index))
	default:
		return fmt.Sprintf("%#x", l.ToPointer(index))
	}
}

const helpText = `  push <v>        push nil, true/false, a number, or a string ("quoted" to force)
  pop [n]         pop n values (default 1)
  dup [idx]       push a copy of the value at idx (default -1)
  type [idx]      type of the value at idx
  len [idx]       length of the string/table at idx
  table           push a fresh table
  ref             pop the top value into a registry reference
  getref <r>      push the value held by reference r
  unref <r>       release reference r
  global <name>   push _G.name
  setglobal <n>   pop the top value into _G.n
  load <src>      load a chunk (the fake VM rejects all source)
  call <n> [r]    pcall with n args, r results (default all)
  defer <text>    schedule a cross-goroutine task setting _G.LAST_DEFER
  pump            drain the task queue, as the think tick would
  clear           empty the stack
  quit            leave`

func runExplorer() error {
	m, err := newExplorerModel()
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
