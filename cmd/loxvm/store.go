package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/chazu/loxvm/store"
)

// storeCommand handles `loxvm store <save|run|list|rm>`.
func (a *app) storeCommand(args []string) error {
	if len(args) == 0 {
		return usageError("usage: loxvm store <save|run|list|rm> [args]")
	}

	s, err := store.Open(a.cfg.StorePath())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	sub, rest := args[0], args[1:]
	switch sub {
	case "save":
		if len(rest) != 1 {
			return usageError("usage: loxvm store save <file.loxc>")
		}
		c, err := readChunk(rest[0])
		if err != nil {
			return err
		}
		defer c.Release()

		id, err := s.Save(ctx, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "saved %s (%s)\n", c.Name(), id)
		return nil

	case "run":
		if len(rest) != 1 {
			return usageError("usage: loxvm store run <name>")
		}
		c, err := s.Load(ctx, rest[0])
		if err != nil {
			return err
		}
		defer c.Release()

		if a.cfg.VM.PrintCode {
			fmt.Fprint(a.stdout, c)
		}
		return a.interpret(c)

	case "list":
		entries, err := s.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSIZE\tCREATED\tID")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", e.Name, e.Size, e.CreatedAt.Format("2006-01-02 15:04:05"), e.ID)
		}
		return tw.Flush()

	case "rm":
		if len(rest) != 1 {
			return usageError("usage: loxvm store rm <name>")
		}
		return s.Delete(ctx, rest[0])

	default:
		return usageError("unknown store command %q", sub)
	}
}
