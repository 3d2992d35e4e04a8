package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/dxf2gml/internal/cache/keys"
	"github.com/mohammed-shakir/dxf2gml/internal/cache/redisstore"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the shared result cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every cached document of this key version from Redis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.RedisAddr == "" {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.New("redis_addr is not set"))
		}
		ctx := commandContext(cmd)
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		defer func() { _ = rc.Close() }()

		n, err := rc.Purge(ctx, keys.Prefix())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached document(s)\n", n)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
