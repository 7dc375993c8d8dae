package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Game   GameConfig
}

type ServerConfig struct {
	Address string
}

// GameConfig 包含所有遊戲規則相關的可調參數
// 計時欄位在測試中會被縮短，因此透過設定注入而非寫死在服務層
type GameConfig struct {
	MaxPlayers    int           // 單一房間的人數上限
	DefaultRounds int           // 未指定或無效時使用的回合數
	MinRounds     int           // 回合數下限
	MaxRounds     int           // 回合數上限
	StartDelay    time.Duration // 第二位玩家加入後到第一回合開始的緩衝
	ChooseTimeout time.Duration // 畫者選詞的時限
	RoundDuration time.Duration // 每回合的作畫時間
	TimeoutGrace  time.Duration // 時間到之後進入下一回合前的緩衝
	GuessedGrace  time.Duration // 全員猜中之後進入下一回合前的緩衝
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	setDefaults()

	// 設定檔為選用，找不到時直接使用預設值
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.address", ":3000")
	viper.SetDefault("game.maxplayers", 12)
	viper.SetDefault("game.defaultrounds", 6)
	viper.SetDefault("game.minrounds", 3)
	viper.SetDefault("game.maxrounds", 20)
	viper.SetDefault("game.startdelay", "3s")
	viper.SetDefault("game.choosetimeout", "15s")
	viper.SetDefault("game.roundduration", "80s")
	viper.SetDefault("game.timeoutgrace", "5s")
	viper.SetDefault("game.guessedgrace", "3s")
}

// DefaultGame 回傳與正式環境相同的遊戲參數，測試以此為基準再行覆寫
func DefaultGame() GameConfig {
	return GameConfig{
		MaxPlayers:    12,
		DefaultRounds: 6,
		MinRounds:     3,
		MaxRounds:     20,
		StartDelay:    3 * time.Second,
		ChooseTimeout: 15 * time.Second,
		RoundDuration: 80 * time.Second,
		TimeoutGrace:  5 * time.Second,
		GuessedGrace:  3 * time.Second,
	}
}
