package services

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// BlockchainService mints assay certificates on chain
type BlockchainService struct {
	client          *ethclient.Client
	contractAddress common.Address
	contractABI     abi.ABI
	defaultSigner   *bind.TransactOpts
}

// NewBlockchainService connects to the chain and prepares the certificate contract
func NewBlockchainService() (*BlockchainService, error) {
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		return nil, fmt.Errorf("ETH_RPC_URL environment variable is required")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum client: %v", err)
	}

	contractAddr := os.Getenv("CERT_CONTRACT_ADDRESS")
	if contractAddr == "" {
		return nil, fmt.Errorf("CERT_CONTRACT_ADDRESS environment variable is required")
	}

	contractABI, err := certificateContractABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %v", err)
	}

	defaultSigner, err := setupDefaultSigner(client)
	if err != nil {
		return nil, fmt.Errorf("failed to setup default signer: %v", err)
	}

	return &BlockchainService{
		client:          client,
		contractAddress: common.HexToAddress(contractAddr),
		contractABI:     contractABI,
		defaultSigner:   defaultSigner,
	}, nil
}

// CheckContractDeployed verifies that code exists at the contract address
func (bs *BlockchainService) CheckContractDeployed(ctx context.Context) error {
	code, err := bs.client.CodeAt(ctx, bs.contractAddress, nil)
	if err != nil {
		return fmt.Errorf("failed to get contract code: %v", err)
	}

	if len(code) == 0 {
		return fmt.Errorf("contract not deployed at address %s", bs.contractAddress.Hex())
	}

	log.Printf("Certificate contract verified at address: %s", bs.contractAddress.Hex())
	return nil
}

// MintCertificate issues a certificate token to the sample owner. Gas is paid
// by the service's default signer.
func (bs *BlockchainService) MintCertificate(ctx context.Context, toAddress, verificationID, tokenURI string) (*big.Int, error) {
	ownerAddr := common.HexToAddress(toAddress)

	gasLimit := uint64(200000)
	gasPrice, err := bs.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %v", err)
	}

	nonce, err := bs.client.PendingNonceAt(ctx, bs.defaultSigner.From)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %v", err)
	}

	opts := &bind.TransactOpts{
		From:     bs.defaultSigner.From,
		Nonce:    big.NewInt(int64(nonce)),
		Value:    big.NewInt(0),
		GasLimit: gasLimit,
		GasPrice: gasPrice,
		Signer:   bs.defaultSigner.Signer,
		Context:  ctx,
	}

	boundContract := bind.NewBoundContract(bs.contractAddress, bs.contractABI, bs.client, bs.client, bs.client)
	transaction, err := boundContract.Transact(opts, "issueCertificate", ownerAddr, verificationID, tokenURI)
	if err != nil {
		return nil, fmt.Errorf("failed to issue certificate: %v", err)
	}

	log.Printf("Certificate transaction sent: %s", transaction.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, bs.client, transaction)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for transaction confirmation: %v", err)
	}

	if receipt.Status != 1 {
		return nil, fmt.Errorf("transaction failed with status: %d", receipt.Status)
	}

	tokenID, err := bs.tokenIDFromReceipt(receipt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ID from receipt: %v", err)
	}

	log.Printf("Certificate minted. Token ID: %s, Transaction: %s", tokenID.String(), transaction.Hash().Hex())
	return tokenID, nil
}

// GetTokenURI reads a token's URI from the contract
func (bs *BlockchainService) GetTokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	input, err := bs.contractABI.Pack("tokenURI", tokenID)
	if err != nil {
		return "", fmt.Errorf("failed to pack tokenURI call: %v", err)
	}

	result, err := bs.client.CallContract(ctx, ethereum.CallMsg{
		To:   &bs.contractAddress,
		Data: input,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to call tokenURI: %v", err)
	}

	var tokenURI string
	err = bs.contractABI.UnpackIntoInterface(&tokenURI, "tokenURI", result)
	if err != nil {
		return "", fmt.Errorf("failed to unpack tokenURI result: %v", err)
	}

	return tokenURI, nil
}

// certificateContractABI holds the fragments of the certificate contract the
// service calls
func certificateContractABI() (abi.ABI, error) {
	abiJSON := `[
	  {
	    "anonymous": false,
	    "inputs": [
	      {"indexed": true, "internalType": "address", "name": "from", "type": "address"},
	      {"indexed": true, "internalType": "address", "name": "to", "type": "address"},
	      {"indexed": true, "internalType": "uint256", "name": "tokenId", "type": "uint256"}
	    ],
	    "name": "Transfer",
	    "type": "event"
	  },
	  {
	    "anonymous": false,
	    "inputs": [
	      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
	      {"indexed": true, "internalType": "uint256", "name": "tokenId", "type": "uint256"},
	      {"indexed": false, "internalType": "string", "name": "verificationId", "type": "string"}
	    ],
	    "name": "CertificateIssued",
	    "type": "event"
	  },
	  {
	    "inputs": [
	      {"internalType": "address", "name": "to", "type": "address"},
	      {"internalType": "string", "name": "verificationId", "type": "string"},
	      {"internalType": "string", "name": "tokenURI", "type": "string"}
	    ],
	    "name": "issueCertificate",
	    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
	    "stateMutability": "nonpayable",
	    "type": "function"
	  },
	  {
	    "inputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}],
	    "name": "tokenURI",
	    "outputs": [{"internalType": "string", "name": "", "type": "string"}],
	    "stateMutability": "view",
	    "type": "function"
	  },
	  {
	    "inputs": [{"internalType": "string", "name": "verificationId", "type": "string"}],
	    "name": "tokenByVerification",
	    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
	    "stateMutability": "view",
	    "type": "function"
	  },
	  {
	    "inputs": [],
	    "name": "totalSupply",
	    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
	    "stateMutability": "view",
	    "type": "function"
	  }
	]`

	return abi.JSON(strings.NewReader(abiJSON))
}

// setupDefaultSigner builds the gas-sponsoring transactor
func setupDefaultSigner(client *ethclient.Client) (*bind.TransactOpts, error) {
	privateKeyHex := os.Getenv("DEFAULT_SIGNER_PRIVATE_KEY")
	if privateKeyHex == "" {
		return nil, fmt.Errorf("DEFAULT_SIGNER_PRIVATE_KEY environment variable is required")
	}

	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}

	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type")
	}

	fromAddress := crypto.PubkeyToAddress(*publicKeyECDSA)
	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %v", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %v", err)
	}

	log.Printf("Default signer configured: %s (Chain ID: %s)", fromAddress.Hex(), chainID.String())
	return auth, nil
}

// tokenIDFromReceipt extracts the minted token ID from the Transfer event
func (bs *BlockchainService) tokenIDFromReceipt(receipt *types.Receipt) (*big.Int, error) {
	transferEventSig := crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	for _, vLog := range receipt.Logs {
		if len(vLog.Topics) >= 4 && vLog.Topics[0] == transferEventSig {
			return new(big.Int).SetBytes(vLog.Topics[3].Bytes()), nil
		}
	}

	return nil, fmt.Errorf("Transfer event not found in receipt")
}

// Close closes the chain connection
func (bs *BlockchainService) Close() {
	if bs.client != nil {
		bs.client.Close()
	}
}
