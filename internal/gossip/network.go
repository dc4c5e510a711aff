// Package gossip implements the peer-to-peer overlay sequencers and
// followers use to broadcast sealed blocks and pooled transactions: a
// libp2p host running gossipsub over two topics, with mDNS for local peer
// discovery. The only surface callers need is Start: hand it an outbound
// channel to publish on, get back an inbound channel of everything peers
// send.
package gossip

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"go.uber.org/zap"
)

// TopicBlocks carries sealed block broadcasts.
const TopicBlocks = "blocks"

// TopicTransactions carries pooled transaction broadcasts, for followers
// that want to observe the pool before a block seals.
const TopicTransactions = "transactions"

// Kind distinguishes which gossip topic a message belongs to.
type Kind int

const (
	KindBlock Kind = iota
	KindTransaction
)

// Outbound is a message to publish to the gossip topic matching its Kind.
type Outbound struct {
	Kind Kind
	Data []byte
}

// Message is a message received from a gossip topic.
type Message struct {
	Kind Kind
	Data []byte
}

// Config configures the gossip overlay's listen addresses, gossipsub
// timing, and mDNS rendezvous tag. Retargeted from the process config's
// p2p section.
type Config struct {
	ListenTCPPort  int
	ListenQUICPort int
	HeartbeatSec   int64
	IdleTimeoutSec int64
	Rendezvous     string
}

// DefaultConfig returns settings equal to the process config's p2p
// defaults, for callers of New that have no process config, e.g. tests.
func DefaultConfig() Config {
	return Config{
		ListenTCPPort:  0,
		ListenQUICPort: 0,
		HeartbeatSec:   10,
		IdleTimeoutSec: 60,
		Rendezvous:     "nolemma-sequencer",
	}
}

// Network is a running libp2p host with gossipsub subscriptions on the
// blocks and transactions topics.
type Network struct {
	host host.Host
	ps   *pubsub.PubSub

	blocksTopic *pubsub.Topic
	txTopic     *pubsub.Topic

	blocksSub *pubsub.Subscription
	txSub     *pubsub.Subscription

	mdns mdns.Service
	log  *zap.Logger
}

// mdnsNotifee dials mDNS-discovered peers so that gossipsub sees them as
// ordinary connected peers. They are not registered as explicit gossipsub
// peers, and peers that stop answering mDNS are not removed.
type mdnsNotifee struct {
	h   host.Host
	log *zap.Logger
}

func (n *mdnsNotifee) HandlePeerFound(pi peer.AddrInfo) {
	if pi.ID == n.h.ID() {
		return
	}
	n.log.Info("mdns discovered peer", zap.String("peer", pi.ID.String()))
	if err := n.h.Connect(context.Background(), pi); err != nil {
		n.log.Warn("mdns connect failed", zap.String("peer", pi.ID.String()), zap.Error(err))
	}
}

// messageID content-addresses a gossipsub message: identical payloads
// collapse to the same ID so they are not re-propagated.
func messageID(msg *pubsub.Message) string {
	h := sha256.Sum256(msg.Data)
	return fmt.Sprintf("%x", h)
}

// New starts a libp2p host listening on QUIC and TCP with noise security
// and yamux multiplexing, joins the blocks and transactions gossipsub
// topics under strict message-signing validation, and starts mDNS local
// peer discovery.
func New(ctx context.Context, log *zap.Logger, cfg Config) (*Network, error) {
	h, err := libp2p.New(
		libp2p.ListenAddrStrings(
			fmt.Sprintf("/ip4/0.0.0.0/udp/%d/quic-v1", cfg.ListenQUICPort),
			fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", cfg.ListenTCPPort),
		),
		libp2p.DefaultSecurity,
		libp2p.DefaultMuxers,
		libp2p.ConnectionManager(mustConnManager(time.Duration(cfg.IdleTimeoutSec)*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("gossip: new host: %w", err)
	}

	gossipParams := pubsub.DefaultGossipSubParams()
	gossipParams.HeartbeatInterval = time.Duration(cfg.HeartbeatSec) * time.Second

	ps, err := pubsub.NewGossipSub(ctx, h,
		pubsub.WithMessageIdFn(messageID),
		pubsub.WithMessageSignaturePolicy(pubsub.StrictSign),
		pubsub.WithPeerExchange(false),
		pubsub.WithGossipSubParams(gossipParams),
	)
	if err != nil {
		return nil, fmt.Errorf("gossip: new gossipsub: %w", err)
	}

	blocksTopic, err := ps.Join(TopicBlocks)
	if err != nil {
		return nil, fmt.Errorf("gossip: join %s: %w", TopicBlocks, err)
	}
	txTopic, err := ps.Join(TopicTransactions)
	if err != nil {
		return nil, fmt.Errorf("gossip: join %s: %w", TopicTransactions, err)
	}

	blocksSub, err := blocksTopic.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("gossip: subscribe %s: %w", TopicBlocks, err)
	}
	txSub, err := txTopic.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("gossip: subscribe %s: %w", TopicTransactions, err)
	}

	n := &Network{
		host:        h,
		ps:          ps,
		blocksTopic: blocksTopic,
		txTopic:     txTopic,
		blocksSub:   blocksSub,
		txSub:       txSub,
		log:         log,
	}

	svc := mdns.NewMdnsService(h, cfg.Rendezvous, &mdnsNotifee{h: h, log: log})
	if err := svc.Start(); err != nil {
		return nil, fmt.Errorf("gossip: start mdns: %w", err)
	}
	n.mdns = svc

	for _, addr := range h.Addrs() {
		log.Info("listening", zap.String("address", addr.String()))
	}

	return n, nil
}

func mustConnManager(grace time.Duration) *connmgr.BasicConnMgr {
	cm, err := connmgr.NewConnManager(
		32, 128,
		connmgr.WithGracePeriod(grace),
	)
	if err != nil {
		panic(fmt.Sprintf("gossip: connection manager: %v", err))
	}
	return cm
}

// Start runs the network's publish/subscribe event loop. Every Outbound
// sent on outbound is published to its topic; every message received from
// peers on either topic is delivered on the returned channel. Start
// returns immediately; its background goroutines stop once ctx is
// canceled, after which the caller should Close the Network.
func (n *Network) Start(ctx context.Context, outbound <-chan Outbound) <-chan Message {
	inbound := make(chan Message, 64)

	go n.publishLoop(ctx, outbound)
	go n.recvLoop(ctx, n.blocksSub, KindBlock, inbound)
	go n.recvLoop(ctx, n.txSub, KindTransaction, inbound)

	return inbound
}

func (n *Network) publishLoop(ctx context.Context, outbound <-chan Outbound) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-outbound:
			if !ok {
				return
			}
			var topic *pubsub.Topic
			switch msg.Kind {
			case KindBlock:
				topic = n.blocksTopic
			case KindTransaction:
				topic = n.txTopic
			default:
				n.log.Warn("gossip: publish unknown kind", zap.Int("kind", int(msg.Kind)))
				continue
			}
			if err := topic.Publish(ctx, msg.Data); err != nil {
				n.log.Warn("gossip: publish", zap.Error(err))
			}
		}
	}
}

func (n *Network) recvLoop(ctx context.Context, sub *pubsub.Subscription, kind Kind, inbound chan<- Message) {
	for {
		m, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			n.log.Warn("gossip: next message", zap.Error(err))
			continue
		}
		select {
		case inbound <- Message{Kind: kind, Data: m.Data}:
		case <-ctx.Done():
			return
		}
	}
}

// ID returns the host's peer ID.
func (n *Network) ID() peer.ID {
	return n.host.ID()
}

// Addrs returns the host's listen multiaddrs.
func (n *Network) Addrs() []string {
	out := make([]string, 0, len(n.host.Addrs()))
	for _, a := range n.host.Addrs() {
		out = append(out, a.String())
	}
	return out
}

// Close tears down mDNS discovery and the libp2p host.
func (n *Network) Close() error {
	n.blocksSub.Cancel()
	n.txSub.Cancel()
	if n.mdns != nil {
		if err := n.mdns.Close(); err != nil {
			n.log.Warn("mdns close", zap.Error(err))
		}
	}
	return n.host.Close()
}
