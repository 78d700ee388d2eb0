// =============================================================================
// mathgen 运维入口
// =============================================================================
// 生成管线的运维命令行，不负责发起生成，只做配置与存储的检查
//
// 使用方法:
//
//	mathgen version                              # 显示版本信息
//	mathgen config check --config config.yaml    # 校验配置并打印生效值
//	mathgen audit recent --db logs.db --limit 20 # 查看最近的生成记录
//	mathgen checkpoint show --dir ckpt --batch b # 查看批任务检查点
// =============================================================================
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/3r453r/math-courses-sub001/batch"
	"github.com/3r453r/math-courses-sub001/config"
)

// 版本信息（构建时注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("mathgen %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
	case "config":
		err = runConfig(os.Args[2:])
	case "audit":
		err = runAudit(os.Args[2:])
	case "checkpoint":
		err = runCheckpoint(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`usage:
  mathgen version
  mathgen config check [--config FILE]
  mathgen audit recent [--db FILE] [--limit N]
  mathgen checkpoint show --dir DIR --batch ID`)
}

// runConfig 加载配置、跑校验器并打印生效值。
func runConfig(args []string) error {
	if len(args) < 1 || args[0] != "check" {
		return fmt.Errorf("unknown config subcommand")
	}
	fs := flag.NewFlagSet("config check", flag.ExitOnError)
	path := fs.String("config", "config.yaml", "配置文件路径")
	fs.Parse(args[1:])

	cfg, err := config.NewLoader().
		WithConfigPath(*path).
		WithValidator(func(c *config.Config) error { return c.Validate() }).
		Load()
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// runAudit 打印最近的生成审计记录。
func runAudit(args []string) error {
	if len(args) < 1 || args[0] != "recent" {
		return fmt.Errorf("unknown audit subcommand")
	}
	fs := flag.NewFlagSet("audit recent", flag.ExitOnError)
	db := fs.String("db", "generation_logs.db", "审计库路径")
	limit := fs.Int("limit", 20, "输出条数")
	fs.Parse(args[1:])

	logger := newLogger()
	defer logger.Sync()

	recent, err := recentRecords(*db, *limit, logger)
	if err != nil {
		return err
	}
	for _, r := range recent {
		fmt.Printf("%s  %-16s %-16s %-8dms  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.GenerationType, r.Outcome, r.DurationMS, r.ID)
	}
	return nil
}

// runCheckpoint 打印一个批任务的检查点状态。
func runCheckpoint(args []string) error {
	if len(args) < 1 || args[0] != "show" {
		return fmt.Errorf("unknown checkpoint subcommand")
	}
	fs := flag.NewFlagSet("checkpoint show", flag.ExitOnError)
	dir := fs.String("dir", "checkpoints", "检查点目录")
	batchID := fs.String("batch", "", "批任务 ID")
	fs.Parse(args[1:])
	if *batchID == "" {
		return fmt.Errorf("--batch is required")
	}

	logger := newLogger()
	defer logger.Sync()

	store, err := batch.NewFileStore(*dir, logger)
	if err != nil {
		return err
	}
	st, err := store.Load(context.Background(), *batchID)
	if err != nil {
		return err
	}

	for id, unit := range st.Units {
		done := 0
		for _, ok := range unit.Done {
			if ok {
				done++
			}
		}
		fmt.Printf("%-32s steps_done=%d artifacts=%d\n", id, done, len(unit.Artifacts))
	}
	if len(st.Units) == 0 {
		fmt.Println("no checkpoint recorded for", *batchID)
	}
	return nil
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
