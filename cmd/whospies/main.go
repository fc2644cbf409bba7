// whospies 命令行客户端：直接读写共享存储，每次调用执行一个操作
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/palemoky/who-spies/internal/config"
	"github.com/palemoky/who-spies/internal/logger"
	"github.com/palemoky/who-spies/internal/server/storage"
	"github.com/palemoky/who-spies/internal/session"
)

const usage = `用法: whospies [-config 路径] <命令> [参数]

命令:
  create <昵称>               创建房间并成为房主
  join   <房间号> <昵称>      加入房间
  leave  <房间号> <昵称>      离开房间
  ready  <房间号> <昵称>      切换准备状态
  start  <房间号> <昵称>      房主开局
  voting <房间号> <昵称>      发起投票
  vote   <房间号> <投票人> <被投人>
  guess  <房间号> <昵称> <地点> 卧底猜测地点
  reset  <房间号> <昵称>      房主重开
  view   <房间号> [昵称]      查看房间
  list                        房间列表
  locations                   地点列表
`

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := run(context.Background(), cfg, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		if errors.Is(err, errUsage) {
			flag.Usage()
		} else if path := logger.GetLogPath(); path != "" {
			fmt.Fprintf(os.Stderr, "详细日志见 %s\n", path)
		}
		logger.Close()
		os.Exit(1)
	}
}

var errUsage = errors.New("参数错误")

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	repo := session.NewRepository(store, session.OptionsFromConfig(cfg, nil))
	return execute(ctx, repo, args, out)
}

// execute 执行一条命令，成功时输出结果
func execute(ctx context.Context, repo *session.Repository, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	need := func(n int) error {
		if len(rest) < n {
			return fmt.Errorf("%w: %s 需要 %d 个参数", errUsage, cmd, n)
		}
		return nil
	}

	var id, viewer string
	switch cmd {
	case "create":
		if err := need(1); err != nil {
			return err
		}
		newID, err := repo.CreateRoom(ctx)
		if err != nil {
			return err
		}
		if err := repo.JoinRoom(ctx, newID, rest[0], true); err != nil {
			return err
		}
		id, viewer = newID, rest[0]
	case "join", "leave", "ready", "start", "voting", "reset":
		if err := need(2); err != nil {
			return err
		}
		id, viewer = strings.ToUpper(rest[0]), rest[1]
		if err := playerCommand(ctx, repo, cmd, id, viewer); err != nil {
			return err
		}
		if cmd == "leave" {
			fmt.Fprintf(out, "👋 %s 已离开房间 %s\n", viewer, id)
			return nil
		}
	case "vote":
		if err := need(3); err != nil {
			return err
		}
		id, viewer = strings.ToUpper(rest[0]), rest[1]
		if err := repo.CastVote(ctx, id, viewer, rest[2]); err != nil {
			return err
		}
	case "guess":
		if err := need(3); err != nil {
			return err
		}
		id, viewer = strings.ToUpper(rest[0]), rest[1]
		if err := repo.SubmitLocationGuess(ctx, id, viewer, strings.Join(rest[2:], " ")); err != nil {
			return err
		}
	case "view":
		if err := need(1); err != nil {
			return err
		}
		id = strings.ToUpper(rest[0])
		if len(rest) > 1 {
			viewer = rest[1]
		}
	case "list":
		rooms, err := repo.ListRooms(ctx)
		if err != nil {
			return err
		}
		for _, r := range rooms {
			fmt.Fprintf(out, "%s\t%s\t%d 人 (%d 已准备)\t房主 %s\n", r.ID, r.Phase, r.PlayerCount, r.ReadyCount, r.Host)
		}
		return nil
	case "locations":
		for _, l := range repo.Locations() {
			fmt.Fprintln(out, l)
		}
		return nil
	default:
		return fmt.Errorf("%w: 未知命令 %q", errUsage, cmd)
	}

	v, err := repo.GetRoomView(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v.ForPlayer(viewer))
}

func playerCommand(ctx context.Context, repo *session.Repository, cmd, id, name string) error {
	switch cmd {
	case "join":
		return repo.JoinAsNew(ctx, id, name)
	case "leave":
		return repo.LeaveRoom(ctx, id, name)
	case "ready":
		return repo.ToggleReady(ctx, id, name)
	case "start":
		return repo.StartAsHost(ctx, id, name)
	case "voting":
		return repo.StartVotingAs(ctx, id, name)
	default:
		return repo.ResetAsHost(ctx, id, name)
	}
}
