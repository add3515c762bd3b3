package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/icon-project/governance/app"
	"github.com/icon-project/governance/config"
	"github.com/icon-project/governance/indexer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "govd",
	Short: "govd runs and talks to a network proposal governance chain",
}

type startArguments struct {
	Home      string
	NoIndexer bool
}

var startArgs startArguments

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the governance node",
	Args:  cobra.NoArgs,
	Run:   startRun,
}

func init() {
	startCmd.Flags().StringVarP(&startArgs.Home, FlagHome, "d", "", "home directory")
	startCmd.Flags().BoolVarP(&startArgs.NoIndexer, "no-indexer", "", false, "do not run the chain indexer")
}

func loadConfig(home string) (*config.Config, error) {
	cfg := config.DefaultConfig(home)
	viper.SetConfigFile(filepath.Join(cfg.RootDir, "config", "config.toml"))
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.SetRoot(cfg.RootDir)
	if err := cfg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration data: %w", err)
	}
	if err := cfg.App.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid app configuration: %w", err)
	}
	cfg.App.Home = cfg.RootDir
	cfg.App.TimeoutCommit = uint64(cfg.Consensus.TimeoutCommit.Seconds())
	return cfg, nil
}

func startIndexer(ctx context.Context, cfg *config.Config, logger cmtlog.Logger) (*indexer.Service, error) {
	rpcUrl, err := url.Parse(cfg.RPC.ListenAddress)
	if err != nil {
		return nil, err
	}
	rpcUrl.Scheme = "http"
	dbPath := cfg.App.IndexerDB
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.RootDir, dbPath)
	}
	idx, err := indexer.NewChainIndexer(logger, dbPath, rpcUrl.String())
	if err != nil {
		return nil, err
	}
	go idx.Start(ctx)
	svc := indexer.NewService(cfg.App.IndexerListen, idx)
	go func() {
		if err := svc.Start(); err != nil {
			logger.Error("indexer service stopped", "err", err)
		}
	}()
	return svc, nil
}

func startRun(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(startArgs.Home)
	if err != nil {
		log.Fatal(err)
	}

	pv := privval.LoadFilePV(
		cfg.PrivValidatorKeyFile(),
		cfg.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(cfg.NodeKeyFile())
	if err != nil {
		log.Fatalf("failed to load node's key: %v", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(cfg.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	govApp, err := app.NewGovApp(cfg.App, logger)
	if err != nil {
		log.Fatalf("new App err:%v", err)
	}

	node, err := nm.NewNode(
		cfg.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(govApp),
		nm.DefaultGenesisDocProviderFunc(cfg.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(cfg.Instrumentation),
		logger,
	)
	if err != nil {
		log.Fatalf("Creating node: %v", err)
	}

	govApp.Start(node.BlockStore())
	if err = node.Start(); err != nil {
		log.Fatalf("start comet node err %s", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	var svc *indexer.Service
	if !startArgs.NoIndexer {
		svc, err = startIndexer(ctx, cfg, logger)
		if err != nil {
			log.Fatalf("start indexer err %s", err.Error())
		}
	}

	defer func() {
		log.Println("shutting down...")
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			if svc != nil {
				sctx, scancel := context.WithTimeout(context.Background(), time.Second*3)
				defer scancel()
				if err := svc.Stop(sctx); err != nil {
					logger.Error("stop indexer service", "err", err)
				}
			}
			if err := node.Stop(); err != nil {
				logger.Error("stop comet node", "err", err)
			}
			node.Wait()
			govApp.Stop()
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
