package cli

import (
	"fmt"
	"io"
	"strings"
)

// prompt はlabelを表示して1行読み取る。echoがfalseの場合はエコーなしで読み取る。
func (a *app) prompt(label string, echo bool) (string, error) {
	fmt.Fprint(a.streams.Err, label+": ")
	if !echo {
		pass, err := a.streams.ReadPassword()
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		return string(pass), nil
	}

	line, err := a.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// valueOrPrompt はフラグ値が空のときだけ入力を求める。
func (a *app) valueOrPrompt(value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return a.prompt(label, true)
}
