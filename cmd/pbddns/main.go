package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pbddns/ddns"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var config = struct {
	TTL       int
	Timeout   int
	Provider  string
	IP        string
	Ifaces    []string
	LookupURL string
	Verbose   bool
}{}

var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "pbddns <domain> [api_key] [api_secret]",
	Short: "Update a domain's DNS A record to this machine's public IP",
	Long: `pbddns performs one dynamic DNS reconciliation pass: it looks up the
machine's current public IP address and the domain's published A record
concurrently, and rewrites the record if the two differ.

Credentials may be passed as arguments, or through the PORKBUN_API_KEY and
PORKBUN_API_SECRET environment variables (a .env file in the working
directory is loaded if present). A missing secret is prompted for when
running on a terminal.

Run it from cron or a systemd timer; a failed pass exits non-zero so the
next scheduled run retries it.`,
	Args:         cobra.RangeArgs(1, 3),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().IntVar(&config.TTL, "ttl", ddns.DefaultTTL, "TTL in seconds for the updated record")
	rootCmd.Flags().IntVar(&config.Timeout, "timeout", 10, "HTTP request timeout in seconds")
	rootCmd.Flags().StringVar(&config.Provider, "provider", "porkbun", "DNS provider (porkbun or cloudflare)")
	rootCmd.Flags().StringVar(&config.IP, "ip", "", "skip the public IP lookup and use this address")
	rootCmd.Flags().StringSliceVar(&config.Ifaces, "iface", nil, "resolve the current IP from these network interfaces instead of a web lookup")
	rootCmd.Flags().StringVar(&config.LookupURL, "lookup-url", "", "override the public IP lookup service URL")
	rootCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	logger.SetLevel(logrus.InfoLevel)
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	domain := args[0]
	key := env("PORKBUN_API_KEY", "")
	secret := env("PORKBUN_API_SECRET", "")
	if len(args) > 1 {
		key = args[1]
	}
	if len(args) > 2 {
		secret = args[2]
	}

	opts := []ddns.Option{
		ddns.WithLogger(logger),
		ddns.WithTTL(config.TTL),
		ddns.UsingHTTPClient(&http.Client{Timeout: time.Duration(config.Timeout) * time.Second}),
	}

	switch config.Provider {
	case "porkbun":
		if key == "" {
			return errors.New("an API key is required: pass it as the second argument or set PORKBUN_API_KEY")
		}
		if secret == "" {
			var err error
			if secret, err = promptSecret("Enter Porkbun API secret: "); err != nil {
				return err
			}
		}
		opts = append(opts, ddns.UsingPorkbun(key, secret))
	case "cloudflare":
		if key == "" {
			return errors.New("a Cloudflare API token is required: pass it as the second argument")
		}
		opts = append(opts, ddns.UsingCloudflare(key))
	default:
		return fmt.Errorf("unknown provider %q", config.Provider)
	}

	switch {
	case config.IP != "":
		opts = append(opts, ddns.UsingResolver(ddns.Static(config.IP)))
	case len(config.Ifaces) > 0:
		opts = append(opts, ddns.UsingResolver(ddns.InterfaceResolver(config.Ifaces...)))
	case config.LookupURL != "":
		opts = append(opts, ddns.UsingLookupService(config.LookupURL))
	}

	client, err := ddns.New(domain, opts...)
	if err != nil {
		return fmt.Errorf("error creating ddns client: %w", err)
	}
	return client.Run(cmd.Context())
}

func promptSecret(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", errors.New("an API secret is required: pass it as the third argument or set PORKBUN_API_SECRET")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("error reading secret from stdin: %w", err)
	}
	return string(b), nil
}

func env(envvar string, defaultvalue string) string {
	e, found := os.LookupEnv(envvar)
	if found {
		return e
	}
	return defaultvalue
}
