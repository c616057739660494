package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/theLastOfCats/series-browser/internal/model"
	"github.com/theLastOfCats/series-browser/internal/state"
)

const shellHelp = `commands:
  tab all|search|rated|profile   switch tab
  refresh                        reload the active tab
  search WORDS...                search the catalog
  profile                        recommendations from the series you liked
  show ID                        open a series
  similar [ID]                   series similar to ID or to the open series
  choose N                       set the pending rating of the open series
  rate [N]                       submit the pending rating (or N)
  unrate                         remove your rating of the open series
  close                          close the open series
  login EMAIL PASSWORD
  register NAME EMAIL PASSWORD
  logout
  export FILE                    write the page as HTML
  help
  quit`

var errQuit = errors.New("quit")

type shell struct {
	a   *app
	in  io.Reader
	out io.Writer
}

func newShell(a *app, in io.Reader, out io.Writer) *shell {
	return &shell{a: a, in: in, out: out}
}

// run loads the catalog, then executes one command per input line until EOF
// or quit. Command failures are already shown on the page and do not stop
// the loop.
func (s *shell) run(ctx context.Context) error {
	_ = s.a.view.SwitchTab(ctx, state.TabAll, true)

	scanner := bufio.NewScanner(s.in)
	s.prompt()
	for scanner.Scan() {
		err := s.exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.prompt()
	}
	return scanner.Err()
}

func (s *shell) prompt() {
	_, _ = fmt.Fprint(s.out, "> ")
}

func (s *shell) println(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	a := s.a

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		s.println("%s", shellHelp)
		return nil
	case "tab":
		if len(args) != 1 {
			return s.usage("tab all|search|rated|profile")
		}
		tab, err := state.ParseTab(args[0])
		if err != nil {
			s.println("%v", err)
			return err
		}
		return a.view.SwitchTab(ctx, tab, false)
	case "refresh":
		return a.view.Refresh(ctx)
	case "search":
		if a.state.ActiveTab() != state.TabSearch {
			a.activate(state.TabSearch)
		}
		return a.view.Search(ctx, strings.Join(args, " "))
	case "profile":
		if a.state.ActiveTab() != state.TabProfile {
			if err := a.view.SwitchTab(ctx, state.TabProfile, false); err != nil || !a.state.LoggedIn() {
				return err
			}
		}
		return a.view.LoadProfile(ctx)
	case "show":
		id, err := s.id(args)
		if err != nil {
			return err
		}
		return a.rating.OpenByID(ctx, id)
	case "similar":
		rec, err := s.reference(args)
		if err != nil {
			return err
		}
		return a.view.LoadSimilar(ctx, rec)
	case "choose":
		n, err := s.score(args)
		if err != nil {
			return err
		}
		if !a.rating.Choose(n) {
			s.println("open a series while logged in to rate it")
		}
		return nil
	case "rate":
		if len(args) > 0 {
			n, err := s.score(args)
			if err != nil {
				return err
			}
			// an explicit score is submitted as typed so validation sees it
			if sel := a.state.Selected(); sel != nil {
				return a.rating.Submit(ctx, sel.ID, n)
			}
		}
		return a.rating.SubmitPending(ctx)
	case "unrate":
		return a.rating.DeletePending(ctx)
	case "close":
		a.rating.Close()
		return nil
	case "login":
		if len(args) != 2 {
			return s.usage("login EMAIL PASSWORD")
		}
		return a.session.Login(ctx, args[0], args[1])
	case "register":
		if len(args) != 3 {
			return s.usage("register NAME EMAIL PASSWORD")
		}
		return a.session.Register(ctx, args[0], args[1], args[2])
	case "logout":
		return a.session.Logout(ctx)
	case "export":
		if len(args) != 1 {
			return s.usage("export FILE")
		}
		if err := a.export(args[0]); err != nil {
			s.println("export failed: %v", err)
			return err
		}
		s.println("wrote %s", args[0])
		return nil
	}

	s.println("unknown command %q, type help", cmd)
	return fmt.Errorf("unknown command %q", cmd)
}

func (s *shell) usage(text string) error {
	s.println("usage: %s", text)
	return errors.New("usage: " + text)
}

func (s *shell) id(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, s.usage("show ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		s.println("%v", err)
	}
	return id, err
}

func (s *shell) score(args []string) (int, error) {
	if len(args) != 1 {
		return 0, s.usage("choose N")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		s.println("invalid score %q", args[0])
		return 0, err
	}
	return n, nil
}

// reference finds the series to compare against: a card of the current page
// by id, or the open series.
func (s *shell) reference(args []string) (model.Record, error) {
	if len(args) == 0 {
		if sel := s.a.state.Selected(); sel != nil {
			return *sel, nil
		}
		return model.Record{}, s.usage("similar ID (or open a series first)")
	}
	id, err := parseID(args[0])
	if err != nil {
		s.println("%v", err)
		return model.Record{}, err
	}
	for _, card := range s.a.text.Page().View.Cards {
		if card.SeriesID == id {
			return card.Record, nil
		}
	}
	s.println("series %d is not on the page", id)
	return model.Record{}, fmt.Errorf("series %d not on page", id)
}
