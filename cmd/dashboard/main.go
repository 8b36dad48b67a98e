package main

import (
	"fmt"
	"os"

	"github.com/abcfe/abcfe-wallet/config"
	"github.com/abcfe/abcfe-wallet/internal/dashboard"
	"github.com/spf13/cobra"
)

var (
	Version   = "1.0.0"
	BuildTime = "unknown"

	configFile string
	host       string
	port       int
	logPath    string
	refresh    int
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "abcfe-dashboard",
		Short: "ABCFe 월렛 모니터링 대시보드",
		Long: `ABCFe Dashboard - 월렛 데몬 실시간 TUI

계정 잔액, 활성 체인, 데몬 로그를 한 화면에서 확인하고
체인 전환, 잠금/해제, 계정 추가를 할 수 있습니다.

사용 예시:
  abcfe-dashboard                        # config.toml의 Server 설정 사용
  abcfe-dashboard --port 8545            # 특정 포트
  abcfe-dashboard --host 192.168.1.100   # 원격 호스트`,
		Run: func(cmd *cobra.Command, args []string) {
			runDashboard()
		},
	}

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "설정 파일 경로")
	rootCmd.Flags().StringVar(&host, "host", "", "데몬 호스트 주소 (기본: 설정 파일)")
	rootCmd.Flags().IntVar(&port, "port", 0, "데몬 REST 포트 (기본: 설정 파일)")
	rootCmd.Flags().StringVar(&logPath, "log-path", "", "로그 파일 접두 경로 (기본: 설정 파일)")
	rootCmd.Flags().IntVar(&refresh, "refresh", 2, "새로고침 간격 (초)")

	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "버전 정보 출력",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ABCFe Dashboard v%s (built: %s)\n", Version, BuildTime)
		},
	}
}

func runDashboard() {
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("Error: 설정 파일을 읽을 수 없습니다: %v\n", err)
		os.Exit(1)
	}

	dc := dashboard.Config{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.RestPort,
		LogPath:    cfg.LogInfo.Path,
		RefreshSec: refresh,
	}
	if host != "" {
		dc.Host = host
	}
	if port != 0 {
		dc.Port = port
	}
	if logPath != "" {
		dc.LogPath = logPath
	}
	// 0.0.0.0 바인딩은 로컬로 접속
	if dc.Host == "" || dc.Host == "0.0.0.0" {
		dc.Host = "localhost"
	}

	if err := dashboard.Run(dc); err != nil {
		fmt.Printf("Dashboard error: %v\n", err)
		os.Exit(1)
	}
}
