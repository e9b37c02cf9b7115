package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/gregLibert/sle4442/internal/cardsim"
	"github.com/gregLibert/sle4442/internal/logging"
	"github.com/gregLibert/sle4442/pkg/apdu"
	"github.com/gregLibert/sle4442/pkg/config"
	"github.com/gregLibert/sle4442/pkg/memory"
	"github.com/gregLibert/sle4442/pkg/pcsc"
	"github.com/gregLibert/sle4442/pkg/sle4442"
	"github.com/gregLibert/sle4442/pkg/tlv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	readerFlag    = flag.String("reader", "", "reader name (default: first reader found)")
	pinFlag       = flag.String("pin", "FFFFFF", "3-byte PIN in hex")
	newPinFlag    = flag.String("new-pin", "", "replace the PIN (needs experimental_modify_pin)")
	writeAddrFlag = flag.Int("write-addr", -1, "address of an optional write")
	writeDataFlag = flag.String("write-data", "", "hex data of the optional write")
	simulateFlag  = flag.Bool("simulate", false, "use an in-memory card instead of PC/SC")
	debugFlag     = flag.Bool("debug", false, "log every exchange")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n>> Demo Finished Successfully")
}

func run() error {
	// --- 1. Setup ---
	cfg, err := config.New(config.Default())
	if err != nil {
		log.Warn().Err(err).Msg("config not loaded, using defaults")
	}
	if *readerFlag != "" {
		cfg.SetReaderName(*readerFlag)
	}
	if *debugFlag {
		cfg.SetDebug(true)
	}

	logger, closer, err := logging.Init(cfg.GetLog())
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	pin, err := tlv.ParseHex(*pinFlag)
	if err != nil {
		return fmt.Errorf("-pin: %w", err)
	}

	ctx, err := openContext(cfg, logger)
	if err != nil {
		return err
	}

	card := sle4442.New(ctx, driverOptions(cfg, logger)...)
	defer func() {
		if err := card.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to release card")
		}
	}()

	if err := card.Connect(cfg.GetReader().Name); err != nil {
		return err
	}
	fmt.Printf(">> Using reader: %s\n", card.Reader())

	// --- 2. Execution Flow ---
	if err := step1Verify(card, pin); err != nil {
		return err
	}

	if err := step2Dump(card); err != nil {
		return err
	}

	if *newPinFlag != "" {
		if err := stepModifyPIN(card, pin); err != nil {
			return err
		}
	}

	if *writeAddrFlag >= 0 {
		if err := step3Write(card); err != nil {
			return err
		}
		if err := step2Dump(card); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println(card.Trace().Describe())
	return nil
}

// =========================================================================
// Helper Functions
// =========================================================================

func openContext(cfg *config.Config, logger zerolog.Logger) (sle4442.Context, error) {
	if *simulateFlag {
		sim := cardsim.New()
		// A sample record in the user area.
		sim.SetMemory(memory.SafeWriteStart, tlv.Hex("50 04 44 45 4D 4F"))
		fmt.Println(">> Simulated card")
		return cardsim.NewContext(sim), nil
	}

	opts := []pcsc.Option{pcsc.WithLogger(logger)}
	if cfg.GetReader().ShareExclusive {
		opts = append(opts, pcsc.WithExclusive())
	}
	ctx, err := pcsc.Establish(opts...)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

func driverOptions(cfg *config.Config, logger zerolog.Logger) []sle4442.Option {
	opts := []sle4442.Option{sle4442.WithLogger(logger)}

	cardCfg := cfg.GetCard()
	if cardCfg.TrustZeroRetryNibble {
		opts = append(opts, sle4442.WithRetryPolicy(apdu.TrustZeroNibble))
	}
	if cardCfg.ExperimentalModifyPIN {
		opts = append(opts, sle4442.WithExperimentalModifyPIN())
	}
	return opts
}

func banner(title string) {
	fmt.Println("\n=============================================")
	fmt.Println(" " + title)
	fmt.Println("=============================================")
}

// step1Verify presents the PIN once. A rejected PIN stops the demo: every failed
// attempt consumes one of the three the card allows.
func step1Verify(card *sle4442.Card, pin []byte) error {
	banner("Step 1: VERIFY PIN")

	res, err := card.VerifyPIN(pin)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}
	fmt.Println(res.Describe())

	if !res.IsSuccess() {
		if res.HasRetries && res.Retries.Remaining == 0 {
			fmt.Println("\n>> No attempt left (or unknown). Do NOT try again with this card.")
		}
		return res.Err()
	}
	return nil
}

// step2Dump reads the whole main memory and the protection bits.
func step2Dump(card *sle4442.Card) error {
	banner("Step 2: READ MAIN MEMORY")

	res, err := card.Read(0, memory.MainMemorySize-1)
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}
	if !res.IsSuccess() {
		fmt.Println(res.Describe())
		return res.Err()
	}

	dump, err := memory.ParseDump(res.Data)
	if err != nil {
		return fmt.Errorf("parse dump: %w", err)
	}
	fmt.Println(dump.Describe())

	prot, err := card.ReadProtected(0, memory.ProtectionBitsSize-1)
	if err != nil {
		return fmt.Errorf("read protection failed: %w", err)
	}
	if !prot.IsSuccess() {
		fmt.Printf(">> Warning: protection memory not readable: %s\n", prot.Status.Verbose())
		return nil
	}

	bits, err := memory.ParseProtectionBits(prot.Data)
	if err != nil {
		return fmt.Errorf("parse protection bits: %w", err)
	}
	fmt.Printf("[=] PROTECTION: %s\n", bits)
	return nil
}

func step3Write(card *sle4442.Card) error {
	banner("Step 3: WRITE")

	data, err := tlv.ParseHex(*writeDataFlag)
	if err != nil {
		return fmt.Errorf("-write-data: %w", err)
	}

	addr := *writeAddrFlag
	if !memory.IsSafeWrite(addr, len(data)) {
		fmt.Printf(">> WARNING: write at 0x%02X touches the card header area\n", addr)
	}

	res, err := card.Write(addr, data)
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	fmt.Println(res.Describe())
	return res.Err()
}

func stepModifyPIN(card *sle4442.Card, pin []byte) error {
	banner("Step 2b: MODIFY PIN")

	newPin, err := tlv.ParseHex(*newPinFlag)
	if err != nil {
		return fmt.Errorf("-new-pin: %w", err)
	}

	res, err := card.ModifyPIN(pin, newPin)
	if errors.Is(err, sle4442.ErrExperimental) {
		fmt.Println(">> Skipped: enable experimental_modify_pin in the [card] section first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("modify pin failed: %w", err)
	}
	fmt.Println(res.Describe())
	return res.Err()
}
