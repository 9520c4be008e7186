// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/vechain/focus/staking"
	"github.com/vechain/focus/staking/settlement"
	"github.com/vechain/focus/thor"
)

// readConfigFile reads a YAML mapping from flag names to scalar values.
func readConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	values := make(map[string]string, len(raw))
	for key, v := range raw {
		switch v := v.(type) {
		case nil:
		case string:
			values[key] = v
		case bool, int, int64, uint64, float64:
			values[key] = fmt.Sprint(v)
		default:
			return nil, errors.Errorf("config: %s: unsupported value %v", key, v)
		}
	}
	return values, nil
}

func isKnownFlag(name string) bool {
	for _, f := range flags {
		if f.GetName() == name {
			return true
		}
	}
	return false
}

// applyConfig sets the flags not given on the command line from values.
func applyConfig(ctx *cli.Context, values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	explicit := make(map[string]bool, len(names))
	for _, name := range names {
		if name == configFlag.Name || !isKnownFlag(name) {
			return errors.Errorf("config: unknown key %q", name)
		}
		explicit[name] = ctx.IsSet(name)
	}
	for _, name := range names {
		if explicit[name] {
			continue
		}
		if err := ctx.Set(name, values[name]); err != nil {
			return errors.Wrapf(err, "config: %s", name)
		}
	}
	return nil
}

func loadConfig(ctx *cli.Context) error {
	path := ctx.String(configFlag.Name)
	if path == "" {
		return nil
	}
	values, err := readConfigFile(path)
	if err != nil {
		return err
	}
	return applyConfig(ctx, values)
}

func parseOptionalAddress(ctx *cli.Context, flag cli.StringFlag) (*thor.Address, error) {
	s := ctx.String(flag.Name)
	if s == "" {
		return nil, nil
	}
	addr, err := thor.ParseAddress(s)
	if err != nil {
		return nil, errors.Wrapf(err, "-%s", flag.Name)
	}
	return &addr, nil
}

func stakingConfig(ctx *cli.Context) (staking.Config, error) {
	bps := ctx.Uint64(bonusBpsFlag.Name)
	if bps > 10000 {
		return staking.Config{}, errors.Errorf("-%s: must not exceed 10000", bonusBpsFlag.Name)
	}
	pool, err := parseOptionalAddress(ctx, communityPoolFlag)
	if err != nil {
		return staking.Config{}, err
	}
	bot, err := parseOptionalAddress(ctx, defaultBotFlag)
	if err != nil {
		return staking.Config{}, err
	}
	return staking.Config{
		Policy: settlement.Policy{
			BonusBps:                bps,
			RefundWhenNoneCompleted: ctx.Bool(refundNoneCompletedFlag.Name),
		},
		DefaultBot:    bot,
		CommunityPool: pool,
	}, nil
}
