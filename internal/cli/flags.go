package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/alexanderramin/mindflow/internal/domain"
)

// modeFlag binds a domain.FlowMode to a pflag.
type modeFlag struct {
	mode *domain.FlowMode
}

var _ pflag.Value = modeFlag{}

func newModeFlag(m *domain.FlowMode) modeFlag {
	*m = domain.DefaultMode
	return modeFlag{mode: m}
}

func (f modeFlag) String() string {
	if f.mode == nil {
		return string(domain.DefaultMode)
	}
	return string(*f.mode)
}

func (f modeFlag) Set(s string) error {
	m, err := domain.ParseFlowMode(s)
	if err != nil {
		return err
	}
	*f.mode = m
	return nil
}

func (modeFlag) Type() string { return "mode" }

// outputFlag restricts -o to a fixed set of formats.
type outputFlag struct {
	value   *string
	allowed []string
}

var _ pflag.Value = outputFlag{}

func newOutputFlag(v *string, def string, allowed ...string) outputFlag {
	*v = def
	return outputFlag{value: v, allowed: allowed}
}

func (f outputFlag) String() string {
	if f.value == nil {
		return ""
	}
	return *f.value
}

func (f outputFlag) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range f.allowed {
		if s == a {
			*f.value = s
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(f.allowed, ", "))
}

func (outputFlag) Type() string { return "format" }

// parseTaskNumber turns a 1-based task number into a plan index.
func parseTaskNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid task number %q: use the # column of `mindflow plan`", arg)
	}
	return n - 1, nil
}
