package main

import (
	"checkout/config"
	"checkout/entity"
	"checkout/gateway"
	"checkout/internal"
	"checkout/services"
	"context"
	"encoding/json"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"os"
	"strings"
)

var (
	configPath string
	envFile    string

	gatewayName string
	request     entity.TransactionRequest
	amount      string
	redirect    string
)

var rootCmd = &cobra.Command{
	Use:   "checkout",
	Short: "JazzCash and Easypaisa checkout signing service",
	Long: `Signs hosted checkout requests and verifies gateway callbacks for the
JazzCash (HMAC-SHA256) and Easypaisa (AES-ECB) payment gateways.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// a missing .env is not an error; real environment variables still apply
		_ = godotenv.Load(envFile)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := internal.NewLogger("internal", false, nil)
		logger.Info("using config file: " + configPath)

		conf, err := config.GetConfig(configPath)
		if err != nil {
			logger.Error("boot", err)
			return err
		}

		var mongo services.Database
		if conf.Mongo.Enabled {
			client, err := internal.NewMongoClient(conf)
			if err != nil {
				logger.Error("mongo client", err)
				return err
			}
			mongo = client
			logger.Info("mongo client initialized")
		}

		internal.RegisterMetrics(prometheus.DefaultRegisterer)

		checkout := internal.NewCheckout(conf)
		checkout.SetLogger(newLogger(conf, "checkout", mongo))
		checkout.SetDatabase(mongo)

		server := internal.NewServer(conf)
		server.SetLogger(newLogger(conf, "server", mongo))
		server.SetCheckout(checkout)

		if err = server.Start(); err != nil {
			logger.Error("server start", err)
			return err
		}
		return nil
	},
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Build and sign a hosted checkout request",
	Example: `  checkout sign --gateway jazzcash --amount 110 --ref abc-123
  checkout sign --gateway easypaisa --amount 100.5 --ref ord-1 --email a@b.pk --mobile 03001234567`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.GetConfig(configPath)
		if err != nil {
			return err
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("%w: %q", gateway.ErrInvalidAmount, amount)
		}
		request.Amount = value
		request.Redirect = entity.RedirectMode(redirect)

		payload, err := internal.NewCheckout(conf).Init(context.Background(), gatewayName, request)
		if err != nil {
			return err
		}
		return printJSON(cmd, payload)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify name=value...",
	Short: "Verify a gateway callback given as name=value pairs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.GetConfig(configPath)
		if err != nil {
			return err
		}
		profile, err := gateway.NewRegistry(conf).Resolve(gatewayName, "")
		if err != nil {
			return err
		}

		fields := make([]entity.Field, 0, len(args))
		for _, arg := range args {
			name, value, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("%w: expected name=value, got %q", gateway.ErrInvalidField, arg)
			}
			fields = append(fields, entity.Field{Name: name, Value: value})
		}
		return printJSON(cmd, gateway.Verify(entity.NewFieldSet(fields...), profile))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "config.yml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")

	signCmd.Flags().StringVar(&gatewayName, "gateway", gateway.JazzCash, "gateway: jazzcash or easypaisa")
	signCmd.Flags().StringVar(&amount, "amount", "", "amount in major units, e.g. 110 or 100.50")
	signCmd.Flags().StringVar(&request.Reference, "ref", "", "merchant reference; generated when empty")
	signCmd.Flags().StringVar(&request.BillReference, "bill-ref", "", "bill reference (jazzcash)")
	signCmd.Flags().StringVar(&request.Description, "description", "", "description (jazzcash)")
	signCmd.Flags().StringVar(&request.Email, "email", "", "payer email (easypaisa)")
	signCmd.Flags().StringVar(&request.MobileNumber, "mobile", "", "payer mobile number 03XXXXXXXXX")
	signCmd.Flags().StringVar(&request.PaymentMethod, "payment-method", "", "payment method override (easypaisa)")
	signCmd.Flags().StringVar(&redirect, "redirect", "", "auto or manual (easypaisa)")
	_ = signCmd.MarkFlagRequired("amount")

	verifyCmd.Flags().StringVar(&gatewayName, "gateway", gateway.JazzCash, "gateway: jazzcash or easypaisa")

	rootCmd.AddCommand(serveCmd, signCmd, verifyCmd)
}

func newLogger(conf *config.Config, category string, database services.Database) services.LogHandler {
	debug := conf.IsDebug || strings.EqualFold(conf.Log.Level, "debug")
	if strings.EqualFold(conf.Log.Format, "console") {
		return internal.NewConsoleLogger(category, debug, database)
	}
	return internal.NewLogger(category, debug, database)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
