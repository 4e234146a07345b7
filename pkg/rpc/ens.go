package rpc

import (
	"context"
	"fmt"
	"strings"

	"ethlookup/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RegistryAddress is the ENS registry, deployed at the same address on every supported network.
var RegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

const (
	registryABIJSON = `[{"name":"resolver","type":"function","stateMutability":"view",
		"inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]}]`
	resolverABIJSON = `[
		{"name":"addr","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
		{"name":"name","type":"function","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"string"}]}]`
)

var (
	registryABI = mustParseABI(registryABIJSON)
	resolverABI = mustParseABI(resolverABIJSON)
)

// Namehash computes the EIP-137 node of name. Labels are lowercased.
func Namehash(name string) [32]byte {
	var node [32]byte
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := crypto.Keccak256([]byte(labels[i]))
		copy(node[:], crypto.Keccak256(node[:], label))
	}
	return node
}

// ReverseNode is the node under addr.reverse that holds the primary name of address.
func ReverseNode(address common.Address) [32]byte {
	hex := strings.ToLower(strings.TrimPrefix(address.Hex(), "0x"))
	return Namehash(hex + ".addr.reverse")
}

func (c *Client) resolver(ctx context.Context, node [32]byte) (common.Address, error) {
	values, err := c.call(ctx, registryABI, c.Registry, "resolver", node)
	if err != nil {
		return common.Address{}, err
	}
	addr, _ := values[0].(common.Address)
	return addr, nil
}

// ResolveName returns the address name points at, or the zero address when
// the name has no resolver or no address record.
func (c *Client) ResolveName(ctx context.Context, name string) (common.Address, error) {
	node := Namehash(name)
	res, err := c.resolver(ctx, node)
	if err != nil {
		if isRevert(err) {
			return common.Address{}, nil
		}
		return common.Address{}, fmt.Errorf("%w: resolver(%s): %v", models.ErrOracle, name, err)
	}
	if res == (common.Address{}) {
		return common.Address{}, nil
	}

	values, err := c.call(ctx, resolverABI, res, "addr", node)
	if err != nil {
		if isRevert(err) {
			return common.Address{}, nil
		}
		return common.Address{}, fmt.Errorf("%w: addr(%s): %v", models.ErrOracle, name, err)
	}
	addr, _ := values[0].(common.Address)
	return addr, nil
}

// LookupAddress performs a reverse ENS lookup. An address without a primary
// name, or whose name does not resolve back to it, yields "" and no error.
func (c *Client) LookupAddress(ctx context.Context, address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", models.ErrValidation, address)
	}
	target := common.HexToAddress(address)
	node := ReverseNode(target)

	res, err := c.resolver(ctx, node)
	if err != nil {
		if isRevert(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: reverse resolver: %v", models.ErrOracle, err)
	}
	if res == (common.Address{}) {
		return "", nil
	}

	values, err := c.call(ctx, resolverABI, res, "name", node)
	if err != nil {
		if isRevert(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: name: %v", models.ErrOracle, err)
	}
	name, _ := values[0].(string)
	if name == "" {
		return "", nil
	}

	forward, err := c.ResolveName(ctx, name)
	if err != nil {
		return "", err
	}
	if forward != target {
		return "", nil
	}
	return name, nil
}
