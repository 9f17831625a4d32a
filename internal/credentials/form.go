package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
)

// Prompter asks the user for one value.
type Prompter interface {
	Prompt(label, defaultValue string, secret bool) (string, error)
}

// TerminalPrompter prompts on the terminal with promptui.
type TerminalPrompter struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

func (p TerminalPrompter) Prompt(label, defaultValue string, secret bool) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: defaultValue,
		Stdin:   p.Stdin,
		Stdout:  p.Stdout,
	}
	if secret {
		prompt.Mask = '*'
	}
	return prompt.Run()
}

// RunForm is the settings form: it pre-fills the saved keys, asks for both,
// and saves them only when both are non-empty. The outcome message is
// written to out; an incomplete form returns ErrIncomplete.
func RunForm(ctx context.Context, store Store, p Prompter, out io.Writer) error {
	current, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading saved keys: %w", err)
	}

	model, err := p.Prompt("OpenAI API key", current.ModelKey, true)
	if err != nil {
		return fmt.Errorf("model key: %w", err)
	}
	search, err := p.Prompt("Tavily API key", current.SearchKey, true)
	if err != nil {
		return fmt.Errorf("search key: %w", err)
	}

	if err := store.Save(ctx, Keys{ModelKey: model, SearchKey: search}); err != nil {
		if errors.Is(err, ErrIncomplete) {
			fmt.Fprintln(out, MsgIncomplete)
		}
		return err
	}
	fmt.Fprintln(out, MsgSaved)
	return nil
}

// Mask hides all but the last four characters of a key.
func Mask(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
