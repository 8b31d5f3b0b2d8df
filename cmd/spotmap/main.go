// Command spotmap is a terminal client for the spot-sharing service.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/jengzang/spotmap-go/internal/app"
	"github.com/jengzang/spotmap-go/internal/config"
)

const usage = `usage: spotmap <command> [flags]

commands:
  register  -email -password -username
  login     -email -password
  logout
  whoami
  spots     [-category] [-min-rating]
  show      -id
  add       -title -category -lat -lon [-rating] [-price] [-description] [-best] [-best-time] [-address] [-image path]...
  delete    -id
  map       [-lat] [-lon] [-zoom] [-category] [-min-rating] [-expand cluster-id]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 初始化应用
	a, err := app.New(cfg)
	if err != nil {
		log.Fatal("Failed to initialize app:", err)
	}
	defer a.Close()

	if err := run(ctx, a, os.Stdout, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		a.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, out io.Writer, cmd string, args []string) error {
	switch cmd {
	case "register":
		return cmdRegister(ctx, a, out, args)
	case "login":
		return cmdLogin(ctx, a, out, args)
	case "logout":
		a.Session.Logout()
		fmt.Fprintln(out, "logged out")
		return nil
	case "whoami":
		return cmdWhoami(ctx, a, out)
	case "spots":
		return cmdSpots(ctx, a, out, args)
	case "show":
		return cmdShow(ctx, a, out, args)
	case "add":
		return cmdAdd(ctx, a, out, args)
	case "delete":
		return cmdDelete(ctx, a, out, args)
	case "map":
		return cmdMap(ctx, a, out, args)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}
