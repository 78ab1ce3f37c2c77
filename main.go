package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/PerterPon/ff/internal/entity"
	"github.com/PerterPon/ff/internal/repo"
	"github.com/PerterPon/ff/internal/service/engine"
	"github.com/PerterPon/ff/internal/service/exchange"
	"github.com/PerterPon/ff/internal/service/feed"
	binancefeed "github.com/PerterPon/ff/internal/service/feed/binance"
	"github.com/PerterPon/ff/internal/service/llm/gemini"
	"github.com/PerterPon/ff/internal/service/report"
	"github.com/PerterPon/ff/internal/service/strategy"
	"github.com/PerterPon/ff/ioc"
	"github.com/PerterPon/ff/pkg/decimalx"
)

func initViper() {

	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.example.yaml", "specify config file")
	pflag.Parse()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
}

type backtestConfig struct {
	Symbol         string `mapstructure:"symbol"`
	Interval       string `mapstructure:"interval"`
	StartTime      string `mapstructure:"start_time"`
	EndTime        string `mapstructure:"end_time"`
	InitialBalance string `mapstructure:"initial_balance"`

	Feed struct {
		Source string `mapstructure:"source"` // binance / file / generated
		File   string `mapstructure:"file"`
	} `mapstructure:"feed"`

	Strategy struct {
		Name string `mapstructure:"name"` // buy_and_hold / grid

		BuyAndHold struct {
			Fraction string `mapstructure:"fraction"`
		} `mapstructure:"buy_and_hold"`

		Grid struct {
			Levels int    `mapstructure:"levels"`
			Step   string `mapstructure:"step"`
			Amount string `mapstructure:"amount"`
		} `mapstructure:"grid"`
	} `mapstructure:"strategy"`

	Report struct {
		Annotate bool `mapstructure:"annotate"` // 是否调用大模型点评
	} `mapstructure:"report"`
}

func loadConfig() backtestConfig {
	var cfg backtestConfig
	if err := viper.UnmarshalKey("backtest", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func mustParseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(fmt.Errorf("bad time %q: %w", s, err))
	}
	return t
}

func initSource(cfg backtestConfig, symbol exchange.Symbol, interval exchange.Interval) feed.Source {
	switch cfg.Feed.Source {
	case "file":
		return feed.NewFileSource(cfg.Feed.File)
	case "generated":
		return feed.NewGeneratedSource(symbol, interval, mustParseTime(cfg.StartTime), 40000, 500, feed.TrendVolatile)
	default:
		cli := ioc.InitBinanceCli()
		return binancefeed.NewSource(cli, symbol, interval, mustParseTime(cfg.StartTime), mustParseTime(cfg.EndTime))
	}
}

func initStrategy(cfg backtestConfig, symbol exchange.Symbol) strategy.Strategy {
	switch cfg.Strategy.Name {
	case "grid":
		return strategy.NewGrid(symbol,
			cfg.Strategy.Grid.Levels,
			decimalx.MustFromString(cfg.Strategy.Grid.Step),
			decimalx.MustFromString(cfg.Strategy.Grid.Amount))
	default:
		return strategy.NewBuyAndHold(symbol, decimalx.MustFromString(cfg.Strategy.BuyAndHold.Fraction))
	}
}

func toEntity(result *engine.Result) entity.BacktestRun {
	return entity.BacktestRun{
		Strategy:       result.Strategy,
		BaseSymbol:     result.Symbol.Base,
		QuoteSymbol:    result.Symbol.Quote,
		Interval:       result.Interval.ToString(),
		StartTime:      result.StartTime,
		EndTime:        result.EndTime,
		InitialBalance: result.InitialBalance.String(),
		FinalBalance:   result.FinalBalance.String(),
		ReturnRate:     result.ReturnRate.String(),
		MaxDrawdown:    result.MaxDrawdown.String(),
		TradeCount:     result.TradeCount,
		FillCount:      result.FillCount,
		Liquidations:   result.Liquidations,
		TotalFees:      result.TotalFees.String(),
		CandleCount:    result.CandleCount,
	}
}

func main() {
	initViper()
	cfg := loadConfig()

	symbol := exchange.SplitSymbol(cfg.Symbol)
	interval := exchange.Interval(cfg.Interval)
	initialBalance := decimalx.MustFromString(cfg.InitialBalance)

	source := initSource(cfg, symbol, interval)
	strat := initStrategy(cfg, symbol)

	db := ioc.InitDB()
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}
	runRepo := repo.NewRunRepo(db)

	bt := engine.NewBacktest(source, strat, initialBalance)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute*30)
	defer cancel()

	result, err := bt.Run(ctx)
	if err != nil {
		panic(err)
	}

	fmt.Print(report.Summary(result))

	id, err := runRepo.Create(ctx, toEntity(result))
	if err != nil {
		slog.Error("save backtest run failed", "err", err)
	} else {
		slog.Info("backtest run saved", "id", id)
	}

	if cfg.Report.Annotate {
		annotator := report.NewAnnotator(gemini.NewService(ioc.InitGeminiCli()))
		comment, err := annotator.Annotate(ctx, result)
		if err != nil {
			slog.Error("annotate failed", "err", err)
			return
		}
		fmt.Println("\n==== LLM Comment ====")
		fmt.Println(comment)
	}
}
