package repl

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

func (r *REPL) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + ansiReset
}

func (r *REPL) info(s string) string    { return r.paint(ansiCyan, s) }
func (r *REPL) notice(s string) string  { return r.paint(ansiYellow, s) }
func (r *REPL) success(s string) string { return r.paint(ansiGreen, s) }
func (r *REPL) failure(s string) string { return r.paint(ansiRed, s) }
