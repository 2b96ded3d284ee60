package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FlightInsights/src/dashboard"
	"FlightInsights/src/metrics"
	"FlightInsights/src/schema"
	"FlightInsights/src/web"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// Set by LDFLAGS
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "flightinsights",
		Short:        "2015 年美国航班延误看板",
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "./config", "配置文件目录(config.json / dataconfig.json / .env)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "输出 debug 日志到终端")

	rootCmd.AddCommand(newServeCmd(), newCheckCmd(), newExportCmd())
	return rootCmd
}

func flags(cmd *cobra.Command) (string, bool, error) {
	configDir, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return "", false, fmt.Errorf("failed to get config flag: %w", err)
	}
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return "", false, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	return configDir, verbose, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动看板 HTTP 服务(默认命令)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	configDir, verbose, err := flags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, configDir, verbose, consoleFor(verbose))
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	a.watchSources(ctx)

	c, err := a.startAudit()
	if err != nil {
		log.Error("audit disabled", "error", err)
	} else {
		defer c.Stop()
	}

	// SIGHUP 重新打开日志文件，配合外部 logrotate
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				if err := a.logger.Reopen(""); err != nil {
					log.Error("failed to reopen log file", "error", err)
					continue
				}
				log.Info("log file reopened", "file", a.cfg.LogName)
			case <-ctx.Done():
				return
			}
		}
	}()

	srv, err := web.NewServer(web.Config{
		Dashboard: a.dashboard,
		Datasets:  a.cache,
		Logs:      a.logger,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 预热缓存；失败不退出，页面显示不可用提示
	go func() {
		if _, err := a.cache.GetAll(ctx); err != nil {
			log.Warn("initial load incomplete", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting dashboard server", "addr", a.cfg.HTTPAddr, "version", version, "commit", commit, "date", date)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal, shutting down...")
	case err, ok := <-errCh:
		if ok {
			log.Error("http server failed", "error", err)
			return err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
		return err
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "加载全部数据集并报告行数和类型转换警告",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, verbose, err := flags(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), configDir, verbose, consoleFor(verbose))
			if err != nil {
				return err
			}
			defer a.Close()
			return runCheck(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

func runCheck(ctx context.Context, a *app, out io.Writer) error {
	all, err := a.cache.GetAll(ctx)
	if err != nil {
		a.log.Error("check failed", "error", err)
		return err
	}

	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"Dataset", "File", "Rows", "Warnings"})

	var warnings []schema.CoercionWarning
	for _, id := range schema.IDs() {
		ds := all[id]
		table.Append([]string{
			string(id),
			a.cache.File(id),
			fmt.Sprintf("%d", ds.Len()),
			fmt.Sprintf("%d", len(ds.Warnings())),
		})
		warnings = append(warnings, ds.Warnings()...)
	}
	table.Render()

	for _, w := range warnings {
		fmt.Fprintln(out, w.String())
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出看板数据为 xlsx 工作簿",
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, verbose, err := flags(cmd)
			if err != nil {
				return err
			}
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return fmt.Errorf("failed to get out flag: %w", err)
			}
			a, err := newApp(cmd.Context(), configDir, verbose, consoleFor(verbose))
			if err != nil {
				return err
			}
			defer a.Close()
			return runExport(cmd.Context(), a, out)
		},
	}
	cmd.Flags().String("out", "flightinsights.xlsx", "输出文件")
	return cmd
}

func runExport(ctx context.Context, a *app, out string) error {
	page := a.dashboard.Render(ctx)
	if page.State != dashboard.StateReady {
		return fmt.Errorf("%w: %s", dashboard.ErrNotReady, page.Message)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := dashboard.WriteWorkbook(page, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.log.Info("dashboard exported", "file", out, "panels", len(page.Panels))
	return nil
}
