// @title PolkaEdu 后端 API
// @version 1.0
// @description PolkaEdu 课程平台后端：课程报名、链上支付校验与 NFT 结业证书。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:3001
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"polkaedu_backend/internal/app"
	"polkaedu_backend/internal/config"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移和示例数据导入，完成后退出")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	// 迁移在 NewApp 中完成，直接退出
	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		application.Close()
		return
	}

	application.Run()
}
