package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	snap := a.session.Snapshot()
	switch {
	case snap.Profile != nil:
		return fmt.Sprintf("(%s)", snap.Profile.Email)
	case snap.Token != "":
		return "(logged in)"
	default:
		return ""
	}
}

// Root prints a welcome banner and runs the REPL over stdin.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to the Cartana accounts CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
