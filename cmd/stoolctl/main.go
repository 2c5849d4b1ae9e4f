package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// usageErr - ошибка в аргументах, завершает процесс с кодом 2
type usageErr struct {
	msg string
}

func (e *usageErr) Error() string { return e.msg }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stoolctl",
		Short:         "Offline tools for stool health quiz results",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().String("tz", "", "Timezone for dates without offset (default: local)")

	root.AddCommand(newScoreCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newMigrateCmd())
	return root
}

// resolveLocation возвращает часовой пояс из --tz или локальный
func resolveLocation(cmd *cobra.Command) (*time.Location, error) {
	name, _ := cmd.Flags().GetString("tz")
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &usageErr{msg: fmt.Sprintf("unknown timezone %q", name)}
	}
	return loc, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ue *usageErr
		if errors.As(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
