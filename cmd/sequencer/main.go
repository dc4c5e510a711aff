// Command sequencer runs the permissioned block-sealing service: an HTTP
// façade for transaction submission and chain inspection, a sequencer
// sealing blocks at a fixed cadence, and a gossip network broadcasting
// every sealed block and pooled transaction to peers.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sergerad/nolemma/internal/config"
	"github.com/sergerad/nolemma/internal/gossip"
	"github.com/sergerad/nolemma/internal/keyload"
	"github.com/sergerad/nolemma/internal/rlpcanon"
	"github.com/sergerad/nolemma/internal/rollup/block"
	"github.com/sergerad/nolemma/internal/rollup/txn"
	"github.com/sergerad/nolemma/internal/sequencer"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signerKey, err := keyload.Get(cfg.Sequencer.KeyEnv)
	if err != nil {
		log.Fatal("sequencer key load failed", zap.Error(err))
	}
	log.Info("sequencer identity", zap.String("address", signerKey.Address.Hex()))

	sq := sequencer.New(signerKey)

	net, err := gossip.New(ctx, log, gossip.Config{
		ListenTCPPort:  cfg.P2P.ListenTCPPort,
		ListenQUICPort: cfg.P2P.ListenQUICPort,
		HeartbeatSec:   cfg.P2P.HeartbeatSec,
		IdleTimeoutSec: cfg.P2P.IdleTimeoutSec,
		Rendezvous:     cfg.P2P.RendezvousName,
	})
	if err != nil {
		log.Fatal("gossip network init failed", zap.Error(err))
	}
	defer net.Close()

	outbound := make(chan gossip.Outbound, 64)
	inbound := net.Start(ctx, outbound)

	sealed := make(chan block.Block, 32)
	go sq.Run(ctx, time.Duration(cfg.Sequencer.BlockPeriodMS)*time.Millisecond, sealed, log)
	go publishSealedBlocks(ctx, outbound, sealed, log)
	go consumeGossip(ctx, inbound, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/", submitHandler(sq, outbound, log))
	r.GET("/", headHandler(sq))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
}

// submitHandler accepts a signed transaction, verifies and pools it, and
// broadcasts it to gossip peers before the next block seals.
func submitHandler(sq *sequencer.Sequencer, outbound chan<- gossip.Outbound, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var signed txn.SignedTransaction
		if err := c.ShouldBindJSON(&signed); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := signed.Verify(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := sq.AddTransaction(signed); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		digest, err := signed.Transaction.Hash()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if raw, err := rlpcanon.Encode(signed); err != nil {
			log.Warn("submit: encode for gossip", zap.Error(err))
		} else {
			select {
			case outbound <- gossip.Outbound{Kind: gossip.KindTransaction, Data: raw}:
			case <-c.Request.Context().Done():
			}
		}

		c.JSON(http.StatusOK, gin.H{"tx_digest": fmt.Sprintf("%x", digest)})
	}
}

// headHandler returns the most recently sealed block.
func headHandler(sq *sequencer.Sequencer) gin.HandlerFunc {
	return func(c *gin.Context) {
		head, ok := sq.Head()
		if !ok {
			c.JSON(http.StatusOK, gin.H{"head": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"head": head})
	}
}

// publishSealedBlocks forwards every block the sequencer seals onto the
// gossip network's outbound channel.
func publishSealedBlocks(ctx context.Context, outbound chan<- gossip.Outbound, sealed <-chan block.Block, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-sealed:
			raw, err := rlpcanon.Encode(b)
			if err != nil {
				log.Error("publish: encode block", zap.Error(err))
				continue
			}
			select {
			case outbound <- gossip.Outbound{Kind: gossip.KindBlock, Data: raw}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// consumeGossip logs transactions received from peers. A follower node
// would pool these; the single-writer sequencer only observes them for
// now, since admission is still gated by its own HTTP endpoint.
func consumeGossip(ctx context.Context, inbound <-chan gossip.Message, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			if msg.Kind == gossip.KindTransaction {
				log.Debug("received gossiped transaction", zap.Int("bytes", len(msg.Data)))
			}
		}
	}
}
