package command

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/utilities"
)

func userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User commands",
	}
	cmd.AddCommand(
		userCreateCommand(),
		userDeleteCommand(),
	)
	return cmd
}

func userCreateCommand() *cobra.Command {
	var (
		superuser bool
		fullName  string
	)
	cmd := &cobra.Command{
		Use:   "create EMAIL",
		Short: "Create user",
		Long: "Creates an account for the provided email. Passwords may be provided\n" +
			"via stdin or through the interactive prompt.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			rt, err := runtimeFrom(cmd.Context())
			if err != nil {
				return err
			}
			a, err := newApp(rt.settings, rt.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			passwd, err := prompt(cmd.InOrStdin(), cmd.ErrOrStderr(), "password: ", true)
			if err != nil {
				return err
			}
			in := entity.UserCreate{
				Email:       args[0],
				Password:    string(passwd),
				IsSuperuser: &superuser,
			}
			if fullName != "" {
				in.FullName = &fullName
			}
			if err := utilities.Validate(in); err != nil {
				return err
			}
			u, err := a.users.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			rt.logger.Infow("created user", "user_id", u.ID, "email", u.Email, "is_superuser", u.IsSuperuser)
			return nil
		},
	}
	cmd.Flags().BoolVar(&superuser, "superuser", false, "grant superuser privileges")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	return cmd
}

func userDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete EMAIL",
		Short: "Delete user",
		Long: "Permanently deletes the account and all of its items. " +
			"This operation is permanent and irreversible.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			rt, err := runtimeFrom(cmd.Context())
			if err != nil {
				return err
			}
			a, err := newApp(rt.settings, rt.logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			logger := rt.logger.With("email", args[0])
			u, err := a.users.GetByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			resp, err := prompt(cmd.InOrStdin(), cmd.ErrOrStderr(), "Are you sure you want to delete this user? [y|N] ", false)
			if !bytes.Equal(resp, []byte{'y'}) || err != nil {
				logger.Info("aborted user deletion")
				return err
			}
			// the operator is not an account, so the self-delete rule never trips
			if err := a.users.Delete(cmd.Context(), &entity.User{IsSuperuser: true}, u.ID); err != nil {
				return err
			}
			logger.Infow("user deleted", "user_id", u.ID)
			return nil
		},
	}
}

// prompt writes msg when stdin is a terminal and reads one line. With mask
// set a terminal read does not echo.
func prompt(in io.Reader, out io.Writer, msg string, mask bool) ([]byte, error) {
	f, isFile := in.(*os.File)
	tty := isFile && term.IsTerminal(int(f.Fd()))
	if tty {
		if _, err := io.WriteString(out, msg); err != nil {
			return nil, err
		}
		if mask {
			b, err := term.ReadPassword(int(f.Fd()))
			_, _ = io.WriteString(out, "\n")
			return b, err
		}
	}
	return readLine(in)
}

func readLine(in io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
