package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/jcampos-dev/docindex/internal/command"
	"github.com/jcampos-dev/docindex/internal/protocol"
	"github.com/jcampos-dev/docindex/internal/transport"
	"github.com/jcampos-dev/docindex/pkg/config"
	"github.com/jcampos-dev/docindex/pkg/logger"
)

func main() {
	// The command flags (-a, -c, …) are not Go flags, so only a leading
	// -config option is taken off the command line before them.
	configPath := ""
	argv := os.Args[1:]
	if len(argv) >= 2 && argv[0] == "-config" {
		configPath, argv = argv[1], argv[2:]
	} else if len(argv) >= 1 && strings.HasPrefix(argv[0], "-config=") {
		configPath, argv = strings.TrimPrefix(argv[0], "-config="), argv[1:]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	row, args, err := command.Parse(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		fmt.Fprintf(os.Stderr, "Usage: %s [-config <file>] <flag> [args…]\n", os.Args[0])
		os.Exit(1)
	}

	req, err := command.EncodeRequest(row, args, int32(os.Getpid()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	client, err := transport.Dial(transport.Config{
		RequestPath:  cfg.Transport.RequestPath,
		ReplyPattern: cfg.Transport.ReplyPattern,
	}, int32(os.Getpid()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := client.Send(req); err != nil {
		fmt.Fprintf(os.Stderr, "sending request: %v\n", err)
		os.Exit(1)
	}
	rsp, err := client.Recv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading reply: %v\n", err)
		os.Exit(1)
	}

	if err := printResponse(rsp); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// printResponse walks the reply TLVs and prints one per line: strings
// verbatim, u32 values in decimal.
func printResponse(rsp *protocol.Response) error {
	cur := protocol.NewCursor(rsp.Payload)
	for {
		tlv, ok, err := cur.Next()
		if err != nil {
			return fmt.Errorf("corrupt TLV in response: %w", err)
		}
		if !ok {
			return nil
		}
		switch protocol.ArgType(tlv.Type) {
		case protocol.ArgStr:
			fmt.Printf("%s\n", tlv.Value)
		case protocol.ArgU32:
			if len(tlv.Value) != 4 {
				return fmt.Errorf("corrupt u32 TLV in response")
			}
			fmt.Printf("%d\n", binary.LittleEndian.Uint32(tlv.Value))
		default:
			fmt.Printf("[type %d len %d]\n", tlv.Type, len(tlv.Value))
		}
	}
}
