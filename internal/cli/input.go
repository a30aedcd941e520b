package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formlogic/pkg/form"
	"github.com/goliatone/go-formlogic/pkg/logic"
)

// loadForm reads and parses a single form document. A document without an
// id takes its file name.
func loadForm(path string) (form.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return form.Form{}, fmt.Errorf("read form: %w", err)
	}
	name := filepath.Base(path)
	f, err := form.Parse(data, name)
	if err != nil {
		return form.Form{}, err
	}
	if f.ID == "" {
		f.ID = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return f, nil
}

// loadAnswers decodes a JSON object of answers keyed by field id. "-" reads
// stdin and an empty path yields no answers.
func loadAnswers(path string, stdin io.Reader) (logic.Answers, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return logic.Answers{}, nil
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	answers := logic.Answers{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return answers, nil
	}
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return answers, nil
}
