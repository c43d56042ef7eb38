package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	careadapters "plantid_backend/internal/feature/care/adapters"
	careentity "plantid_backend/internal/feature/care/domain/entity"
	"plantid_backend/internal/feature/identification/client"
	"plantid_backend/internal/feature/identification/usecase"
	infrahttp "plantid_backend/internal/platform/http"
)

// errReported は通知を表示済みであることを示し、mainでの重複出力を防ぎます。
var errReported = errors.New("reported")

const defaultServer = "http://localhost:5000"

func newRootCommand() *cobra.Command {
	var (
		serverURL string
		maxSize   int64
		timeout   time.Duration
		noCare    bool
	)

	cmd := &cobra.Command{
		Use:           "identify <image>",
		Short:         "Identify a plant from a photo using the plant identification server",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := usecase.DefaultUploadPolicy()
			policy.MaxBytes = maxSize
			uploader := client.NewUploader(serverURL, infrahttp.NewHTTPClient(timeout), policy)

			return runIdentify(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), uploader, args[0], !noCare)
		},
	}

	server := os.Getenv("PLANTID_SERVER")
	if server == "" {
		server = defaultServer
	}
	cmd.Flags().StringVar(&serverURL, "server", server, "Base URL of the identification server")
	cmd.Flags().Int64Var(&maxSize, "max-size", usecase.DefaultMaxImageSize, "Maximum image size in bytes")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Request timeout")
	cmd.Flags().BoolVar(&noCare, "no-care", false, "Do not show care instructions")

	return cmd
}

func runIdentify(ctx context.Context, stdout, stderr io.Writer, uploader *client.Uploader, path string, withCare bool) error {
	vm := client.NewViewModel()

	img, err := uploader.Prepare(path)
	if err != nil {
		if rerr := vm.Reject(err); rerr != nil {
			return rerr
		}
		return report(stderr, vm.View())
	}

	if err := vm.Submit(); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Identifying %s...\n", img.Filename)

	details, err := uploader.Send(ctx, img)
	if err != nil {
		slog.Debug("identification request failed", "error", err)
		if ferr := vm.Fail(err); ferr != nil {
			return ferr
		}
		return report(stderr, vm.View())
	}
	if err := vm.Resolve(*details); err != nil {
		return err
	}

	var care []careentity.CareInstruction
	if withCare {
		care, err = uploader.CareInstructions(ctx)
		if err != nil {
			slog.Debug("falling back to built-in care instructions", "error", err)
			care = careadapters.DefaultCatalog().List()
		}
	}

	return client.RenderResults(stdout, *vm.View().Result, care)
}

func report(w io.Writer, v client.View) error {
	switch v.Notice {
	case client.NoticeValidationProblem:
		fmt.Fprintf(w, "Cannot use this image: %s\n", v.Message)
	case client.NoticeTransientError:
		fmt.Fprintf(w, "Identification failed, please try again: %s\n", v.Message)
	}
	return errReported
}
