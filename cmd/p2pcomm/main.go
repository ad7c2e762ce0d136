// Package main 提供 p2pcomm 演示节点
//
// 节点应答 ping 与 echo 请求，可选地连接另一个节点并发送一条请求：
//
//	p2pcomm -listen /ip4/0.0.0.0/tcp/4001
//	p2pcomm -connect /ip4/127.0.0.1/tcp/4001/p2p/<peer> -send hello
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	p2pcomm "github.com/dep2p/go-p2pcomm"
	"github.com/dep2p/go-p2pcomm/config"
	"github.com/dep2p/go-p2pcomm/internal/util/addrutil"
	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var log = logger.Logger("p2pcomm/cmd")

var (
	configFile = flag.String("config", "", "配置文件路径（JSON）")
	preset     = flag.String("preset", "", "预设配置 (server/minimal/test)")
	keyFile    = flag.String("key", "", "身份密钥文件路径（PEM）")
	listenAddr = flag.String("listen", config.DefaultListenAddr, "监听地址，为空时不监听")
	connectTo  = flag.String("connect", "", "启动后连接的节点 <peer>@<addr> 或 <addr>/p2p/<peer>")
	sendText   = flag.String("send", "", "连接后发送的 echo 文本，为空时发送 ping")
	relayTo    = flag.String("relay", "", "中继节点 <peer>@<addr> 或 <addr>/p2p/<peer>")
	relayMode  = flag.String("relay-mode", "backup", "中继模式 (always/backup)")
	serveRelay = flag.Bool("serve-relay", false, "为其他节点转发请求")
	blockIPs   = flag.String("block-ip", "", "拒绝连接的远端 IP，逗号分隔")
	logLevel   = flag.String("log-level", "info", "日志级别 (debug/info/warn/error)")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(p2pcomm.VersionInfo())
		return nil
	}
	logger.SetGlobalLevel(logger.ParseLevel(*logLevel))
	if err := p2pcomm.ValidateKinds(KindPing, KindEcho); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	opts := []p2pcomm.Option{p2pcomm.WithConfig(cfg), p2pcomm.WithPreset(*preset)}
	if *keyFile != "" {
		opts = append(opts, p2pcomm.WithKeyFile(*keyFile))
	}

	client := pkgif.ClientFunc[Message, string](handle)
	node, err := p2pcomm.New[Message, string, Kind](client, opts...)
	if err != nil {
		return fmt.Errorf("创建节点失败: %w", err)
	}
	defer func() { _ = node.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("📦 %s\n", p2pcomm.VersionInfo())
	if err := node.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	fmt.Printf("节点 ID: %s\n", node.ID())

	// 配置文件中的监听地址已在 Start 中处理
	if *listenAddr != "" && (isFlagSet("listen") || len(cfg.Transport.ListenAddrs) == 0) {
		bound, err := node.Listen(ctx, types.Multiaddr(*listenAddr))
		if err != nil {
			return err
		}
		full, err := addrutil.BuildFullAddr(bound, node.ID())
		if err != nil {
			return err
		}
		fmt.Printf("监听地址: %s\n", full)
	}

	if *relayTo != "" {
		if err := applyRelay(ctx, node); err != nil {
			return err
		}
	}

	if *connectTo != "" {
		if err := connectAndSend(ctx, node); err != nil {
			return err
		}
	}

	fmt.Println("节点已启动，按 Ctrl+C 退出")
	select {
	case <-ctx.Done():
	case <-node.Done():
		log.Warn("引擎意外停止")
	}
	fmt.Println("\n正在关闭节点...")
	return nil
}

// loadConfig 加载配置文件并应用命令行覆盖
func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadFile(*configFile); err != nil {
			return nil, err
		}
	}
	if *serveRelay {
		cfg.Relay.EnableService = true
	}
	cfg.Firewall.BlockedIPs = append(cfg.Firewall.BlockedIPs, splitList(*blockIPs)...)
	return cfg, nil
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

type commNode = p2pcomm.Comm[Message, string, Kind]

func applyRelay(ctx context.Context, n *commNode) error {
	peer, addr, err := parseTarget(*relayTo)
	if err != nil {
		return err
	}
	mode, err := types.ParseRelayMode(*relayMode)
	if err != nil {
		return err
	}
	rc := types.RelayConfig{Mode: mode, Peer: peer, Addr: addr}
	if err := n.SetRelay(ctx, rc); err != nil {
		return fmt.Errorf("设置中继失败: %w", err)
	}
	fmt.Printf("中继: %s\n", rc)
	return nil
}

func connectAndSend(ctx context.Context, n *commNode) error {
	peer, addr, err := parseTarget(*connectTo)
	if err != nil {
		return err
	}

	if err := n.Connect(ctx, peer, addr, types.UnlimitedKeepAlive()); err != nil {
		return fmt.Errorf("连接失败: %w", err)
	}
	fmt.Printf("已连接: %s\n", peer.ShortString())

	msg := Message{Kind: KindPing}
	if *sendText != "" {
		msg = Message{Kind: KindEcho, Text: *sendText}
	}
	start := time.Now()
	res, err := n.Request(ctx, peer, msg)
	if err != nil {
		// 请求失败不退出，节点继续提供服务
		log.Warn("请求失败", "peer", peer.ShortString(), "kind", msg.Kind, "err", err)
		return nil
	}
	fmt.Printf("%s → %q (%s)\n", msg.Kind, res, time.Since(start).Round(time.Millisecond))
	return nil
}
