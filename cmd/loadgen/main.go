// Command loadgen drives a sequencer process end to end: it spawns the
// sequencer binary as a child process, submits a stream of signed dynamic
// and withdrawal transactions against its HTTP façade, and polls the head
// block to log sealed-block verification results.
package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/sergerad/nolemma/internal/keyload"
	"github.com/sergerad/nolemma/internal/rollup/block"
	"github.com/sergerad/nolemma/internal/rollup/txn"
	"github.com/sergerad/nolemma/internal/signer"
)

// sequencerURL is the base URL the driven sequencer process listens on.
const sequencerURL = "http://127.0.0.1:8080"

func main() {
	log, _ := zap.NewDevelopment()
	defer log.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sequencerSigner, err := signer.NewRandom()
	if err != nil {
		log.Fatal("generate sequencer key", zap.Error(err))
	}

	go runSequencer(ctx, sequencerSigner, log)
	go headLoop(ctx, 4*time.Second, log)

	txLoop(ctx, log)
}

// runSequencer starts the sequencer binary as a child process with its
// secret key passed through the environment, and blocks until it exits or
// ctx is canceled.
func runSequencer(ctx context.Context, s *signer.Signer, log *zap.Logger) {
	cmd := exec.CommandContext(ctx, "sequencer")
	cmd.Env = append(os.Environ(), keyload.KeyEnvVar+"="+hex.EncodeToString(privateKeyBytes(s)))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.Info("starting sequencer process")
	if err := cmd.Run(); err != nil && ctx.Err() == nil {
		log.Error("sequencer process exited", zap.Error(err))
	}
}

func privateKeyBytes(s *signer.Signer) []byte {
	return s.PrivateKey.D.FillBytes(make([]byte, 32))
}

// txLoop continuously sends a dynamic transaction followed by a
// withdrawal from a fresh random signer, waiting a quarter block period
// between rounds.
func txLoop(ctx context.Context, log *zap.Logger) {
	const blockPeriod = 2 * time.Second
	time.Sleep(blockPeriod)

	client := &http.Client{Timeout: 5 * time.Second}
	var amount uint64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s, err := signer.NewRandom()
		if err != nil {
			log.Error("generate signer", zap.Error(err))
			continue
		}

		dynamic := txn.NewDynamic(s.Address, amount)
		signedDynamic, err := txn.NewSigned(dynamic, s)
		if err != nil {
			log.Error("sign dynamic transaction", zap.Error(err))
			continue
		}
		if err := sendTransaction(ctx, client, signedDynamic); err != nil {
			log.Warn("send dynamic transaction", zap.Error(err))
			time.Sleep(blockPeriod)
			continue
		}

		withdrawal := txn.NewWithdrawal(s.Address, amount, 1)
		signedWithdrawal, err := txn.NewSigned(withdrawal, s)
		if err != nil {
			log.Error("sign withdrawal transaction", zap.Error(err))
			continue
		}
		if err := sendTransaction(ctx, client, signedWithdrawal); err != nil {
			log.Warn("send withdrawal transaction", zap.Error(err))
			time.Sleep(blockPeriod)
			continue
		}

		amount++
		time.Sleep(blockPeriod / 4)
	}
}

func sendTransaction(ctx context.Context, client *http.Client, st txn.SignedTransaction) error {
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sequencerURL+"/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sequencer returned status %d", resp.StatusCode)
	}
	return nil
}

// headLoop polls the sequencer's head block and logs its verification
// result, once blocks have had a chance to seal.
func headLoop(ctx context.Context, startDelay time.Duration, log *zap.Logger) {
	time.Sleep(startDelay)
	client := &http.Client{Timeout: 5 * time.Second}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pollHead(ctx, client, log)
		}
	}
}

func pollHead(ctx context.Context, client *http.Client, log *zap.Logger) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sequencerURL+"/", nil)
	if err != nil {
		log.Error("build head request", zap.Error(err))
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Warn("get head block", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	var body struct {
		Head *block.Block `json:"head"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Error("decode head block", zap.Error(err))
		return
	}
	if body.Head == nil {
		log.Info("no blocks yet")
		return
	}

	verifyErr := body.Head.Verify()
	log.Info("head block",
		zap.Uint64("number", body.Head.Number()),
		zap.Bool("verified", verifyErr == nil),
	)
}
