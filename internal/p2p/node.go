// Package p2p implements peer-to-peer gossip for TribeChain: a thin
// libp2p/GossipSub transport carrying exactly the two message types
// spec.md §6 names — blocks and transactions. There is no peer-
// reputation, handshake, or chain-sync protocol here: this core
// assumes an external longest-valid-chain selector drives the node
// (spec.md §5's fork-choice note), so the transport's only job is
// delivering gossip, not negotiating it.
package p2p

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	klog "github.com/tribechain/tribechain/internal/log"
	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	libp2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	drouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	dutil "github.com/libp2p/go-libp2p/p2p/discovery/util"
)

// TopicTransactions and TopicBlocks are the two GossipSub topics this
// node joins, per spec.md §6's "broadcaster/deliverer for blocks and
// transactions".
const (
	TopicTransactions = "tribechain/tx/1"
	TopicBlocks       = "tribechain/block/1"
)

// maxGossipMessageSize bounds one pubsub message: generously above a
// single block's expected size, since spec.md names no hard cap of
// its own.
const maxGossipMessageSize = 4 * 1024 * 1024

const dhtDiscoveryInterval = 30 * time.Second

// Config holds P2P node configuration, trimmed to what a gossip-only
// transport needs: no ban store, no per-chain topic multiplexing.
type Config struct {
	ListenAddr string
	Port       int
	Seeds      []string
	MaxPeers   int
	NoDiscover bool
	NetworkID  string // isolates DHT rendezvous per network
	DataDir    string // for persisting node identity across restarts
}

// Node is a libp2p host joined to the transaction and block topics.
// Deliverer callbacks (SetTxHandler/SetBlockHandler) are how
// internal/mempool and internal/chain receive gossip; Broadcast* is
// how they publish it.
type Node struct {
	host   host.Host
	pubsub *pubsub.PubSub
	config Config
	ctx    context.Context
	cancel context.CancelFunc

	topicTx    *pubsub.Topic
	topicBlock *pubsub.Topic
	subTx      *pubsub.Subscription
	subBlock   *pubsub.Subscription

	txHandler    func(peer.ID, []byte)
	blockHandler func(peer.ID, []byte)

	dht *dht.IpfsDHT // nil if NoDiscover

	mu    sync.RWMutex
	peers map[peer.ID]time.Time
}

// New creates a new P2P node with the given config.
func New(cfg Config) *Node {
	ctx, cancel := context.WithCancel(context.Background())
	return &Node{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
		peers:  make(map[peer.ID]time.Time),
	}
}

// rendezvous returns the DHT/mDNS discovery namespace for this node.
func (n *Node) rendezvous() string {
	if n.config.NetworkID != "" {
		return "tribechain/" + n.config.NetworkID
	}
	return "tribechain"
}

// Start initializes the libp2p host, pubsub, and begins listening.
func (n *Node) Start() error {
	addr := fmt.Sprintf("/ip4/%s/tcp/%d", n.config.ListenAddr, n.config.Port)

	var opts []libp2p.Option
	opts = append(opts, libp2p.ListenAddrStrings(addr))

	if n.config.DataDir != "" {
		privKey, err := loadOrCreateIdentity(n.config.DataDir)
		if err != nil {
			return fmt.Errorf("load p2p identity: %w", err)
		}
		opts = append(opts, libp2p.Identity(privKey))
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		return fmt.Errorf("create libp2p host: %w", err)
	}
	n.host = h

	if !n.config.NoDiscover {
		if err := n.initDHT(); err != nil {
			h.Close()
			return fmt.Errorf("init dht: %w", err)
		}
	}

	ps, err := pubsub.NewGossipSub(n.ctx, h, pubsub.WithMaxMessageSize(maxGossipMessageSize))
	if err != nil {
		n.closeDHT()
		h.Close()
		return fmt.Errorf("create pubsub: %w", err)
	}
	n.pubsub = ps

	if err := n.joinTopics(); err != nil {
		n.closeDHT()
		h.Close()
		return err
	}

	go n.readLoop(n.subTx, n.handleTxMessage)
	go n.readLoop(n.subBlock, n.handleBlockMessage)

	if len(n.config.Seeds) > 0 {
		klog.P2P.Info().Int("seeds", len(n.config.Seeds)).Msg("connecting to seeds")
	}
	n.connectSeedsOnce()
	go n.connectSeedsLoop()

	if !n.config.NoDiscover {
		n.startMDNS()
		go n.runDHTDiscovery()
	}

	return nil
}

// Stop shuts down the P2P node.
func (n *Node) Stop() error {
	n.cancel()
	if n.subTx != nil {
		n.subTx.Cancel()
	}
	if n.subBlock != nil {
		n.subBlock.Cancel()
	}
	n.closeDHT()
	if n.host != nil {
		return n.host.Close()
	}
	return nil
}

// Host returns the underlying libp2p host (nil before Start).
func (n *Node) Host() host.Host { return n.host }

// ID returns the peer ID of this node.
func (n *Node) ID() peer.ID {
	if n.host == nil {
		return ""
	}
	return n.host.ID()
}

// Addrs returns the full multiaddrs of this node.
func (n *Node) Addrs() []string {
	if n.host == nil {
		return nil
	}
	var addrs []string
	for _, a := range n.host.Addrs() {
		addrs = append(addrs, fmt.Sprintf("%s/p2p/%s", a, n.host.ID()))
	}
	return addrs
}

// SetTxHandler registers the deliverer callback for incoming
// transactions: the sender peer ID and the raw wire bytes, which the
// caller (internal/mempool's owner) decodes and feeds to
// internal/validator.
func (n *Node) SetTxHandler(fn func(from peer.ID, data []byte)) {
	n.txHandler = fn
}

// SetBlockHandler registers the deliverer callback for incoming
// blocks, fed to internal/chain.Processor.Process with origin
// chain.FromPeer.
func (n *Node) SetBlockHandler(fn func(from peer.ID, data []byte)) {
	n.blockHandler = fn
}

// BroadcastTransaction publishes a transaction's wire bytes to every
// peer subscribed to TopicTransactions.
func (n *Node) BroadcastTransaction(data []byte) error {
	if n.topicTx == nil {
		return fmt.Errorf("p2p: not started")
	}
	return n.topicTx.Publish(n.ctx, data)
}

// BroadcastBlock publishes a block's wire bytes to every peer
// subscribed to TopicBlocks, per spec.md §4.I step 9.
func (n *Node) BroadcastBlock(data []byte) error {
	if n.topicBlock == nil {
		return fmt.Errorf("p2p: not started")
	}
	return n.topicBlock.Publish(n.ctx, data)
}

// PeerCount returns the number of peers this node has seen gossip
// from or connected to.
func (n *Node) PeerCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.peers)
}

func (n *Node) addPeer(id peer.ID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peers[id] = time.Now()
}

func (n *Node) joinTopics() error {
	var err error
	n.topicTx, err = n.pubsub.Join(TopicTransactions)
	if err != nil {
		return fmt.Errorf("join tx topic: %w", err)
	}
	n.topicBlock, err = n.pubsub.Join(TopicBlocks)
	if err != nil {
		return fmt.Errorf("join block topic: %w", err)
	}
	n.subTx, err = n.topicTx.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribe tx: %w", err)
	}
	n.subBlock, err = n.topicBlock.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribe block: %w", err)
	}
	return nil
}

func (n *Node) readLoop(sub *pubsub.Subscription, handler func(*pubsub.Message)) {
	for {
		msg, err := sub.Next(n.ctx)
		if err != nil {
			return // context cancelled
		}
		if msg.ReceivedFrom == n.host.ID() {
			continue // echo-suppress our own publish
		}
		handler(msg)
	}
}

func (n *Node) handleTxMessage(msg *pubsub.Message) {
	defer func() { recover() }()
	n.addPeer(msg.ReceivedFrom)
	if n.txHandler != nil {
		n.txHandler(msg.ReceivedFrom, msg.Data)
	}
}

func (n *Node) handleBlockMessage(msg *pubsub.Message) {
	defer func() { recover() }()
	n.addPeer(msg.ReceivedFrom)
	if n.blockHandler != nil {
		n.blockHandler(msg.ReceivedFrom, msg.Data)
	}
}

func (n *Node) startMDNS() {
	svc := mdns.NewMdnsService(n.host, n.rendezvous(), &discoveryNotifee{node: n})
	_ = svc.Start() // best-effort: mDNS failure is non-fatal
}

type discoveryNotifee struct{ node *Node }

func (d *discoveryNotifee) HandlePeerFound(info peer.AddrInfo) {
	ctx, cancel := context.WithTimeout(d.node.ctx, 5*time.Second)
	defer cancel()
	if err := d.node.host.Connect(ctx, info); err == nil {
		d.node.addPeer(info.ID)
	}
}

func (n *Node) connectSeedsOnce() bool {
	connected := false
	for _, addr := range n.config.Seeds {
		info, err := peer.AddrInfoFromString(addr)
		if err != nil {
			klog.P2P.Warn().Str("addr", addr).Err(err).Msg("bad seed address")
			continue
		}
		ctx, cancel := context.WithTimeout(n.ctx, 10*time.Second)
		err = n.host.Connect(ctx, *info)
		cancel()
		if err != nil {
			klog.P2P.Warn().Str("peer", info.ID.String()).Err(err).Msg("seed connect failed")
			continue
		}
		n.addPeer(info.ID)
		connected = true
	}
	return connected
}

func (n *Node) connectSeedsLoop() {
	if len(n.config.Seeds) == 0 {
		return
	}
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-time.After(10 * time.Second):
			if n.PeerCount() == 0 {
				n.connectSeedsOnce()
			}
		}
	}
}

func (n *Node) initDHT() error {
	kadDHT, err := dht.New(n.ctx, n.host)
	if err != nil {
		return fmt.Errorf("create kad-dht: %w", err)
	}
	n.dht = kadDHT
	return kadDHT.Bootstrap(n.ctx)
}

func (n *Node) closeDHT() {
	if n.dht != nil {
		n.dht.Close()
		n.dht = nil
	}
}

func (n *Node) runDHTDiscovery() {
	if n.dht == nil {
		return
	}
	routingDiscovery := drouting.NewRoutingDiscovery(n.dht)
	dutil.Advertise(n.ctx, routingDiscovery, n.rendezvous())

	ticker := time.NewTicker(dhtDiscoveryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.findDHTPeers(routingDiscovery)
		}
	}
}

func (n *Node) findDHTPeers(routingDiscovery *drouting.RoutingDiscovery) {
	ctx, cancel := context.WithTimeout(n.ctx, 20*time.Second)
	defer cancel()

	peerCh, err := routingDiscovery.FindPeers(ctx, n.rendezvous())
	if err != nil {
		return
	}
	for p := range peerCh {
		if p.ID == n.host.ID() || len(p.Addrs) == 0 {
			continue
		}
		if n.config.MaxPeers > 0 && n.PeerCount() >= n.config.MaxPeers {
			return
		}
		connectCtx, connectCancel := context.WithTimeout(n.ctx, 5*time.Second)
		if err := n.host.Connect(connectCtx, p); err == nil {
			n.addPeer(p.ID)
		}
		connectCancel()
	}
}

// loadOrCreateIdentity loads a persisted libp2p identity key from
// dataDir, or generates a new one and saves it, so the peer ID is
// stable across restarts.
func loadOrCreateIdentity(dataDir string) (libp2pcrypto.PrivKey, error) {
	keyPath := filepath.Join(dataDir, "node.key")

	if data, err := os.ReadFile(keyPath); err == nil {
		keyBytes, err := hex.DecodeString(string(data))
		if err != nil {
			return nil, fmt.Errorf("decode node key: %w", err)
		}
		return libp2pcrypto.UnmarshalEd25519PrivateKey(keyBytes)
	}

	priv, _, err := libp2pcrypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	raw, err := priv.Raw()
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(raw)), 0600); err != nil {
		return nil, fmt.Errorf("save node key: %w", err)
	}
	return priv, nil
}
