// Command contest-deploy deploys the CapyContest contracts to a Neo network
// and links them together. Compiled NEF and manifest files of both contracts
// are expected in the directory passed via -contracts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nspcc-dev/neo-go/cli/input"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"

	"github.com/capylabs/capycontest-contract/deploy"
)

func main() {
	neoRPCEndpoint := flag.String("rpc", "", "Network address of the Neo RPC server")
	walletPath := flag.String("wallet", "", "Path to the committee wallet file")
	contractsDir := flag.String("contracts", "build", "Directory with compiled contracts (capy.nef, capy.manifest.json, contest.nef, contest.manifest.json)")

	flag.Parse()

	switch {
	case *neoRPCEndpoint == "":
		log.Fatal("missing Neo RPC endpoint")
	case *walletPath == "":
		log.Fatal("missing committee wallet path")
	}

	err := run(*neoRPCEndpoint, *walletPath, *contractsDir)
	if err != nil {
		log.Fatal(err)
	}
}

func run(neoRPCEndpoint, walletPath, contractsDir string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	l, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer l.Sync()

	acc, err := unlockWallet(walletPath)
	if err != nil {
		return fmt.Errorf("unlock committee wallet: %w", err)
	}

	c, err := rpcclient.New(ctx, neoRPCEndpoint, rpcclient.Options{})
	if err != nil {
		return fmt.Errorf("init Neo RPC client: %w", err)
	}
	defer c.Close()

	prm := deploy.Prm{
		Logger:           l,
		Blockchain:       c,
		CommitteeAccount: acc,
	}

	prm.Capy, err = readContract(contractsDir, "capy")
	if err != nil {
		return err
	}

	prm.Contest, err = readContract(contractsDir, "contest")
	if err != nil {
		return err
	}

	contracts, err := deploy.Deploy(ctx, prm)
	if err != nil {
		return err
	}

	log.Printf("CapyContest contracts are on the chain: capy=%s, contest=%s\n",
		contracts.Capy.StringLE(), contracts.Contest.StringLE())

	return nil
}

func unlockWallet(walletPath string) (*wallet.Account, error) {
	w, err := wallet.NewWalletFromFile(walletPath)
	if err != nil {
		return nil, fmt.Errorf("read wallet file: %w", err)
	}

	pass, err := input.ReadPassword(fmt.Sprintf("Password for %s: ", walletPath))
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}

	acc := w.GetAccount(w.GetChangeAddress())
	if acc == nil {
		return nil, fmt.Errorf("no suitable account in wallet %s", walletPath)
	}

	err = acc.Decrypt(pass, w.Scrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypt account: %w", err)
	}

	return acc, nil
}

func readContract(dir, name string) (deploy.ContractPrm, error) {
	var prm deploy.ContractPrm

	rawNEF, err := os.ReadFile(filepath.Join(dir, name+".nef"))
	if err != nil {
		return prm, fmt.Errorf("read '%s' NEF file: %w", name, err)
	}

	prm.NEF, err = nef.FileFromBytes(rawNEF)
	if err != nil {
		return prm, fmt.Errorf("parse '%s' NEF file: %w", name, err)
	}

	rawManifest, err := os.ReadFile(filepath.Join(dir, name+".manifest.json"))
	if err != nil {
		return prm, fmt.Errorf("read '%s' manifest file: %w", name, err)
	}

	err = json.Unmarshal(rawManifest, &prm.Manifest)
	if err != nil {
		return prm, fmt.Errorf("parse '%s' manifest file: %w", name, err)
	}

	return prm, nil
}
