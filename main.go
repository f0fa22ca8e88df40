package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	commandx "github.com/tanpawarit/yuchi/agent/command"
	imagex "github.com/tanpawarit/yuchi/agent/image"
	statex "github.com/tanpawarit/yuchi/agent/state"
	toolx "github.com/tanpawarit/yuchi/agent/tool"
	"github.com/tanpawarit/yuchi/pkg/config"
	logx "github.com/tanpawarit/yuchi/pkg/logger"
	"github.com/tanpawarit/yuchi/pkg/shapes"
	"github.com/tanpawarit/yuchi/pkg/ui"
	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

type AppConfig struct {
	ConfigFile string `envconfig:"CONFIG_FILE" split_words:"true"`
}

type options struct {
	image    string
	model    string
	shape    string
	shapeSet bool
	envFile  string
	reset    bool
	wack     bool
	sleep    bool
	login    bool
	logout   bool
	imagine  bool
	version  bool
	help     bool
	question string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("yuchi", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.StringVar(&o.image, "image", "", "Path to an image file (PNG/JPEG) to send to the AI")
	fs.StringVar(&o.model, "model", "", "Override the model for this question")
	fs.StringVar(&o.shape, "shape", "", "Set a ShapesAI username to use a custom model (shapesinc/<username>)")
	fs.StringVar(&o.envFile, "env", "", "Load environment variables from this file")
	fs.BoolVar(&o.reset, "reset", false, "Reset the AI conversation history (sends '!reset' to AI)")
	fs.BoolVar(&o.wack, "wack", false, "Clear the AI's short-term memory (sends '!wack' to AI)")
	fs.BoolVar(&o.sleep, "sleep", false, "Save the current conversation state")
	fs.BoolVar(&o.login, "login", false, "Authenticate with ShapesAI")
	fs.BoolVar(&o.logout, "logout", false, "Clear stored credentials and configuration")
	fs.BoolVar(&o.imagine, "imagine", false, "Generate an image and download it (appends '!imagine' to the prompt)")
	fs.BoolVar(&o.version, "version", false, "Print the version and exit")
	fs.BoolVarP(&o.help, "help", "h", false, "Show help")
	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		return options{}, yuchierr.Input(err.Error())
	}
	o.question = strings.Join(fs.Args(), " ")
	o.shapeSet = fs.Changed("shape")
	return o, nil
}

func main() {
	printer := ui.NewPrinter()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], printer)
	stop()

	if err != nil {
		printer.Error(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, printer *ui.Printer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.version {
		printer.Info("yuchi " + ui.Version)
		return nil
	}
	if opts.help {
		printer.Help()
		return nil
	}

	logCfg, err := config.Load[logx.Config]("LOG", opts.envFile)
	if err != nil {
		return yuchierr.Configf("Failed to load environment: %v", err)
	}
	logx.Init(*logCfg)

	svc, err := newService(opts.envFile, printer)
	if err != nil {
		return err
	}

	switch {
	case opts.login:
		return svc.Login(ctx)
	case opts.logout:
		return svc.Logout(ctx)
	case opts.shapeSet:
		return svc.SetShape(ctx, opts.shape)
	case opts.sleep:
		return svc.Sleep(ctx)
	case opts.imagine:
		_, err := svc.Imagine(ctx, opts.question, opts.model, opts.image)
		return err
	case opts.reset:
		return svc.Reset(ctx, opts.model)
	case opts.wack:
		return svc.Wack(ctx, opts.model)
	case opts.question != "":
		_, err := svc.Ask(ctx, opts.question, opts.model, opts.image)
		return err
	default:
		printer.Help()
		return nil
	}
}

func newService(envFile string, printer *ui.Printer) (*commandx.Service, error) {
	appCfg, err := config.Load[AppConfig]("YUCHI", envFile)
	if err != nil {
		return nil, yuchierr.Configf("Failed to load environment: %v", err)
	}
	shapesCfg, err := config.Load[shapes.Config]("SHAPES", envFile)
	if err != nil {
		return nil, yuchierr.Configf("Failed to load environment: %v", err)
	}
	imageCfg, err := config.Load[imagex.Config]("YUCHI", envFile)
	if err != nil {
		return nil, yuchierr.Configf("Failed to load environment: %v", err)
	}
	upstashCfg, err := config.Load[statex.UpstashRedisConfig]("UPSTASH", envFile)
	if err != nil {
		return nil, yuchierr.Configf("Failed to load environment: %v", err)
	}

	settingsPath := appCfg.ConfigFile
	if settingsPath == "" {
		if settingsPath, err = config.DefaultSettingsPath(); err != nil {
			return nil, yuchierr.Configf("Failed to load config: %v", err)
		}
	}
	settings := config.NewSettingsFile(settingsPath)

	spinner := ui.NewSpinner(os.Stderr, ui.IsTerminal(os.Stderr))
	prompter := ui.NewTerminalPrompter(os.Stdin, os.Stdout)
	shell := toolx.NewShellExecutor(prompter, printer, toolx.WithProgress(spinner))

	deps := commandx.Deps{
		Settings:    settings,
		Shapes:      *shapesCfg,
		Auth:        shapes.NewAuthenticator(*shapesCfg),
		Tools:       toolx.NewGateway(shell),
		Prompter:    prompter,
		Output:      printer,
		Progress:    spinner,
		Downloader:  imagex.NewDownloader(*imageCfg),
		Transcripts: statex.NewFileStore(settings.Dir()),
	}
	if upstashCfg.Enabled() {
		remote, err := statex.NewUpstashRedisStore(*upstashCfg)
		if err != nil {
			return nil, yuchierr.Configf("Failed to configure conversation store: %v", err)
		}
		deps.Remote = remote
		log.Debug().Msg("remote transcript store enabled")
	}

	svc, err := commandx.New(deps)
	if err != nil {
		return nil, yuchierr.Config(err.Error())
	}
	return svc, nil
}
