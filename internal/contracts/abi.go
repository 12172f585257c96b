// File: internal/contracts/abi.go
package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI fragments for the contracts this service drives. Only the
// functions the service actually calls are declared.

// Standard ERC-20 interface (EIP-20)
const erc20ABIJSON = `[
	{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"mint","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

// SY wrapper: base token in, standardized yield token out
const syWrapperABIJSON = `[
	{"name":"wrap","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"unwrap","type":"function","stateMutability":"nonpayable","inputs":[{"name":"syAmount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"yieldRate","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// Yield tokenization: SY in, PT + YT out, keyed by maturity
const yieldTokenizationABIJSON = `[
	{"name":"split","type":"function","stateMutability":"nonpayable","inputs":[{"name":"syAmount","type":"uint256"},{"name":"maturity","type":"uint256"}],"outputs":[]},
	{"name":"redeem","type":"function","stateMutability":"nonpayable","inputs":[{"name":"ptAmount","type":"uint256"},{"name":"maturity","type":"uint256"}],"outputs":[]},
	{"name":"getMaturities","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]},
	{"name":"ptTokens","type":"function","stateMutability":"view","inputs":[{"name":"maturity","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"ytTokens","type":"function","stateMutability":"view","inputs":[{"name":"maturity","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
]`

// Staking pool
const stakingPoolABIJSON = `[
	{"name":"stake","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"unstake","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"stakedBalance","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"rewardRate","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	erc20ABI             = mustParseABI(erc20ABIJSON)
	syWrapperABI         = mustParseABI(syWrapperABIJSON)
	yieldTokenizationABI = mustParseABI(yieldTokenizationABIJSON)
	stakingPoolABI       = mustParseABI(stakingPoolABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("contracts: invalid embedded ABI: " + err.Error())
	}
	return parsed
}
