package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/inkhub/inkhub/internal/article"
	"github.com/inkhub/inkhub/internal/auth"
	"github.com/inkhub/inkhub/internal/cache"
	"github.com/inkhub/inkhub/internal/config"
	"github.com/inkhub/inkhub/internal/logging"
	"github.com/inkhub/inkhub/internal/remote"
	"github.com/inkhub/inkhub/internal/server"
	"github.com/inkhub/inkhub/internal/server/routes"
	"github.com/inkhub/inkhub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	envFile     string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	if err := loadEnvFile(opts.envFile); err != nil {
		fmt.Fprintf(stdErr, "加载环境变量文件失败: %v\n", err)
		return 1
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["repository"] = cfg.Remote.Repository
		fields["branch"] = cfg.Remote.Branch
		fields["cache_backend"] = cfg.Cache.Backend
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 缓存 → 远端仓库 → 文章服务 → 鉴权 → Fiber server，
	// 所有请求共享同一组实例。
	app, cleanup, err := buildApp(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化服务失败: %v\n", err)
		return 1
	}
	defer cleanup()

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["repository"] = cfg.Remote.Repository
	fields["branch"] = cfg.Remote.Branch
	fields["credentials"] = cfg.Remote.AuthMode()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(app, cfg.Global.ListenPort, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	flags := flag.NewFlagSet("inkhub", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	var (
		configFlag string
		envFile    string
		checkOnly  bool
		showVer    bool
	)

	flags.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 INKHUB_CONFIG 覆盖）")
	flags.StringVar(&envFile, "env-file", ".env", "启动前加载的环境变量文件，不存在时忽略")
	flags.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	flags.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := flags.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("INKHUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		envFile:     envFile,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// loadEnvFile 读取 .env 文件注入环境变量，已存在的环境变量优先。
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// buildApp 装配全部依赖并注册路由，返回的 cleanup 负责释放缓存连接。
func buildApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*fiber.App, func(), error) {
	layer, err := cache.Open(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化缓存失败: %w", err)
	}
	cleanup := func() {
		if err := layer.Close(); err != nil {
			logger.WithError(err).WithField("action", "shutdown").Warn("cache_close_failed")
		}
	}

	owner, name := cfg.Remote.OwnerAndName()
	store, err := remote.NewGitHubStore(remote.GitHubOptions{
		Owner:          owner,
		Repo:           name,
		Branch:         cfg.Remote.Branch,
		Token:          cfg.Remote.Token,
		BaseURL:        cfg.Remote.BaseURL,
		Timeout:        cfg.Remote.Timeout.DurationValue(),
		CommitterName:  cfg.Remote.CommitterName,
		CommitterEmail: cfg.Remote.CommitterEmail,
		HTTPClient:     server.NewUpstreamClient(cfg, logger),
		Logger:         logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("初始化远端仓库失败: %w", err)
	}

	svc, err := article.NewService(article.Options{
		Store:  store,
		Cache:  layer,
		Logger: logger,
		Layout: article.LayoutFromConfig(cfg.Content),
		TTLs:   article.TTLsFromConfig(cfg.Cache),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	authn, err := auth.NewAuthenticator(auth.OptionsFromConfig(cfg.Auth, logger))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("初始化鉴权失败: %w", err)
	}

	app, err := server.NewApp(server.AppOptions{Logger: logger, AppName: "inkhub"})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	routes.RegisterDiagnosticsRoutes(app, routes.DiagnosticsInfo{
		Repository:   cfg.Remote.Repository,
		Branch:       cfg.Remote.Branch,
		CacheBackend: layer.Backend(),
		AuthMode:     cfg.Remote.AuthMode(),
		StartedAt:    time.Now(),
	})
	routes.RegisterAuthRoutes(app, authn)
	routes.RegisterArticleRoutes(app, routes.ArticleDeps{
		Service: svc,
		Gate:    authn,
		Policy:  auth.PolicyFromConfig(cfg.Auth),
	})

	return app, cleanup, nil
}

// printVersion 输出版本、提交与编译所用的 Go 版本。
func printVersion() {
	info := version.Current()
	fmt.Fprintf(stdOut, "%s (%s)\n", version.Full(), info.GoVersion)
}

func startHTTPServer(app *fiber.App, port int, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
