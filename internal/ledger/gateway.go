package ledger

import (
	"context"
	_ "embed"
	"errors"
	"log"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

//go:embed contract_abi.json
var contractABIJSON string

var ErrMissingPrivateKey = errors.New("PRIVATE_KEY must be set for the relayer")

// Config holds the ledger connection settings.
type Config struct {
	RPCURL          string
	PrivateKey      string // relayer signing key, required
	ContractAddress string
}

// PendingTx is a submitted but not yet confirmed ledger transaction.
type PendingTx interface {
	Hash() string
	// Wait blocks until the transaction is mined and returns an error on
	// timeout or revert.
	Wait(ctx context.Context) error
}

// Writer exposes one signed write method per business capability. Argument
// order on each call is part of the wire contract and must match the
// deployed ABI exactly.
type Writer interface {
	AddProduct(ctx context.Context, productName, productID, farmName string, plantingDate int64, plantingImageUrl, seedOrigin, creatorPhone, creatorName string) (PendingTx, error)
	LogCare(ctx context.Context, productID, careType, description string, careDate int64, careImageUrl, actorPhone, actorName string) (PendingTx, error)
	UpdateProduct(ctx context.Context, productID, productName, farmName string, harvestDate int64, harvestImageUrl string, quantity int64, quality string) (PendingTx, error)
	ApprovePlanting(ctx context.Context, productID string) (PendingTx, error)
	RejectPlanting(ctx context.Context, productID string) (PendingTx, error)
	ApproveHarvest(ctx context.Context, productID string) (PendingTx, error)
	RejectHarvest(ctx context.Context, productID string) (PendingTx, error)
	UpdateReceive(ctx context.Context, productID, transporterName string, receiveDate int64, receiveImageUrl, transportInfo string) (PendingTx, error)
	UpdateDelivery(ctx context.Context, productID, transporterName string, deliveryDate int64, deliveryImageUrl, transportInfo string) (PendingTx, error)
	UpdateManagerInfo(ctx context.Context, productID string, managerReceiveDate int64, managerReceiveImageUrl string, price int64) (PendingTx, error)
	DeactivateProduct(ctx context.Context, productID string) (PendingTx, error)
}

// Reader exposes the unsigned enumeration and detail queries.
type Reader interface {
	NextProductID(ctx context.Context) (int64, error)
	IndexToProductID(ctx context.Context, index int64) (string, error)
	GetTrace(ctx context.Context, productID string) (*TraceInfo, error)
	GetCareLogs(ctx context.Context, productID string) ([]CareLog, error)
}

// Gateway holds the two logical handles over one contract: transactions go
// out signed with the relayer key, calls go out unsigned.
type Gateway struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	relayer  common.Address

	// Serializes the fetch-nonce/build/submit window. All requests share
	// the relayer account's nonce sequence; concurrent submissions without
	// this ordering collide.
	mu sync.Mutex
}

var (
	_ Writer = (*Gateway)(nil)
	_ Reader = (*Gateway)(nil)
)

// NewGateway dials the RPC endpoint and binds the contract. A missing
// private key is a fatal configuration error by design.
func NewGateway(ctx context.Context, cfg Config) (*Gateway, error) {
	if cfg.PrivateKey == "" {
		return nil, ErrMissingPrivateKey
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, err
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(strings.NewReader(contractABIJSON))
	if err != nil {
		return nil, err
	}

	address := common.HexToAddress(cfg.ContractAddress)
	contract := bind.NewBoundContract(address, parsed, client, client, client)

	relayer := crypto.PubkeyToAddress(key.PublicKey)
	log.Printf("Relayer wallet address: %s", relayer.Hex())

	return &Gateway{
		client:   client,
		contract: contract,
		auth:     auth,
		relayer:  relayer,
	}, nil
}

// RelayerAddress returns the signing account's address.
func (g *Gateway) RelayerAddress() string {
	return g.relayer.Hex()
}

// Close releases the underlying RPC connection.
func (g *Gateway) Close() {
	g.client.Close()
}

func (g *Gateway) transact(ctx context.Context, method string, params ...interface{}) (PendingTx, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	opts := *g.auth
	opts.Context = ctx

	tx, err := g.contract.Transact(&opts, method, params...)
	if err != nil {
		return nil, err
	}
	return &pendingTx{client: g.client, tx: tx}, nil
}

func (g *Gateway) call(ctx context.Context, out *[]interface{}, method string, params ...interface{}) error {
	return g.contract.Call(&bind.CallOpts{Context: ctx}, out, method, params...)
}

type pendingTx struct {
	client *ethclient.Client
	tx     *types.Transaction
}

func (p *pendingTx) Hash() string {
	return p.tx.Hash().Hex()
}

func (p *pendingTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.client, p.tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return errors.New("transaction reverted")
	}
	return nil
}

// --- Write methods, 1:1 with action tags ---

func (g *Gateway) AddProduct(ctx context.Context, productName, productID, farmName string, plantingDate int64, plantingImageUrl, seedOrigin, creatorPhone, creatorName string) (PendingTx, error) {
	// harvestDate, harvestImageUrl, quality, quantity and transportInfo are
	// zeroed at creation; the contract fills them on later actions.
	return g.transact(ctx, "addProduct",
		productName,
		productID,
		farmName,
		big.NewInt(plantingDate),
		plantingImageUrl,
		big.NewInt(0),
		"",
		seedOrigin,
		"",
		creatorPhone,
		creatorName,
		big.NewInt(0),
		"",
	)
}

func (g *Gateway) LogCare(ctx context.Context, productID, careType, description string, careDate int64, careImageUrl, actorPhone, actorName string) (PendingTx, error) {
	return g.transact(ctx, "logCare",
		productID,
		careType,
		description,
		big.NewInt(careDate),
		careImageUrl,
		actorPhone,
		actorName,
	)
}

func (g *Gateway) UpdateProduct(ctx context.Context, productID, productName, farmName string, harvestDate int64, harvestImageUrl string, quantity int64, quality string) (PendingTx, error) {
	return g.transact(ctx, "updateProduct",
		productID,
		productName,
		farmName,
		big.NewInt(harvestDate),
		harvestImageUrl,
		big.NewInt(quantity),
		quality,
	)
}

func (g *Gateway) ApprovePlanting(ctx context.Context, productID string) (PendingTx, error) {
	return g.transact(ctx, "approvePlanting", productID)
}

func (g *Gateway) RejectPlanting(ctx context.Context, productID string) (PendingTx, error) {
	return g.transact(ctx, "rejectPlanting", productID)
}

func (g *Gateway) ApproveHarvest(ctx context.Context, productID string) (PendingTx, error) {
	return g.transact(ctx, "approveHarvest", productID)
}

func (g *Gateway) RejectHarvest(ctx context.Context, productID string) (PendingTx, error) {
	return g.transact(ctx, "rejectHarvest", productID)
}

func (g *Gateway) UpdateReceive(ctx context.Context, productID, transporterName string, receiveDate int64, receiveImageUrl, transportInfo string) (PendingTx, error) {
	return g.transact(ctx, "updateReceive",
		productID,
		transporterName,
		big.NewInt(receiveDate),
		receiveImageUrl,
		transportInfo,
	)
}

func (g *Gateway) UpdateDelivery(ctx context.Context, productID, transporterName string, deliveryDate int64, deliveryImageUrl, transportInfo string) (PendingTx, error) {
	return g.transact(ctx, "updateDelivery",
		productID,
		transporterName,
		big.NewInt(deliveryDate),
		deliveryImageUrl,
		transportInfo,
	)
}

func (g *Gateway) UpdateManagerInfo(ctx context.Context, productID string, managerReceiveDate int64, managerReceiveImageUrl string, price int64) (PendingTx, error) {
	return g.transact(ctx, "updateManagerInfo",
		productID,
		big.NewInt(managerReceiveDate),
		managerReceiveImageUrl,
		big.NewInt(price),
	)
}

func (g *Gateway) DeactivateProduct(ctx context.Context, productID string) (PendingTx, error) {
	return g.transact(ctx, "deactivateProduct", productID)
}

// --- Read methods ---

func (g *Gateway) NextProductID(ctx context.Context) (int64, error) {
	var out []interface{}
	if err := g.call(ctx, &out, "nextProductId"); err != nil {
		return 0, err
	}
	return ToInt64(out[0]), nil
}

func (g *Gateway) IndexToProductID(ctx context.Context, index int64) (string, error) {
	var out []interface{}
	if err := g.call(ctx, &out, "indexToProductId", big.NewInt(index)); err != nil {
		return "", err
	}
	pid, _ := out[0].(string)
	return pid, nil
}

func (g *Gateway) GetTrace(ctx context.Context, productID string) (*TraceInfo, error) {
	var out []interface{}
	if err := g.call(ctx, &out, "getTrace", productID); err != nil {
		return nil, err
	}
	trace := *abi.ConvertType(out[0], new(TraceInfo)).(*TraceInfo)
	return &trace, nil
}

// GetCareLogs fetches the dedicated care-log list. Older contract versions
// lack the call, so it falls back to the trace's embedded slice.
func (g *Gateway) GetCareLogs(ctx context.Context, productID string) ([]CareLog, error) {
	var out []interface{}
	if err := g.call(ctx, &out, "getCareLogs", productID); err != nil {
		trace, traceErr := g.GetTrace(ctx, productID)
		if traceErr != nil {
			return nil, err
		}
		return trace.CareLogs, nil
	}
	logs := *abi.ConvertType(out[0], new([]CareLog)).(*[]CareLog)
	return logs, nil
}
