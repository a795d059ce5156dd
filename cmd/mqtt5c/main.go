// Command mqtt5c is a command-line MQTT 5.0 client. It connects to the
// broker given as the address argument, optionally publishes standard
// input to a topic, and prints messages from subscribed topic filters
// until interrupted.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgewire/mqtt5"
)

const payloadMax = 256 * 1024 * 1024

var name = os.Args[0]

var subscribeFlags []string

func init() {
	flag.Func("subscribe", "Listen with a topic `filter`. May be repeated.", func(value string) error {
		subscribeFlags = append(subscribeFlags, value)
		return nil
	})
}

var (
	publishFlag = flag.String("publish", "", "Send standard input as one message to a `topic`.")
	qosFlag     = flag.Int("qos", 0, "Quality of service `level` for publish and subscribe (0, 1 or 2).")
	retainFlag  = flag.Bool("retain", false, "Publish with the retain flag set.")

	timeoutFlag = flag.Duration("timeout", 10*time.Second, "Network operation expiry.")
	tlsFlag     = flag.Bool("tls", false, "Secure the connection with TLS.")
	serverFlag  = flag.String("server", "", "Expect a specific server `name` with TLS.")
	wsFlag      = flag.Bool("ws", false, "Connect over WebSocket. The address is a ws:// or wss:// URL.")
	quicFlag    = flag.Bool("quic", false, "Connect over QUIC.")

	userFlag = flag.String("user", "", "Authenticate with a user `name`.")
	passFlag = flag.String("pass", "", "Read the password from a `file`.")

	clientFlag = flag.String("client", "", "Use a specific client `identifier`.")
	topicFlag  = flag.Bool("topic", false, "Print the topic before each inbound message.")

	verboseFlag = flag.Bool("verbose", false, "Log client internals to standard error.")
)

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	if *qosFlag < 0 || *qosFlag > 2 {
		log.Fatalf("%s: invalid QoS %d", name, *qosFlag)
	}

	client := mqtt5.New(address(), options()...)

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	err := client.Start(ctx, false)
	cancel()
	if err != nil {
		log.Fatalf("%s: connect: %s", name, err)
	}

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		<-signals
		client.Stop()
	}()

	if *publishFlag != "" {
		if err := publish(client); err != nil {
			client.Stop()
			log.Fatalf("%s: publish: %s", name, err)
		}
	}

	if len(subscribeFlags) == 0 {
		client.Stop()
		return
	}

	for {
		msg, err := client.ReadMessage(context.Background())
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Fatalf("%s: read: %s", name, err)
			}
			return
		}

		if *topicFlag {
			fmt.Printf("%s\t", msg.Topic)
		}
		fmt.Printf("%s\n", msg.Payload)
	}
}

// address normalizes the broker address, applying the default port for
// host-only arguments on port-based transports.
func address() string {
	addr := flag.Arg(0)
	if *wsFlag {
		return addr
	}

	if _, _, err := net.SplitHostPort(addr); err != nil {
		port := "1883"
		if *tlsFlag || *quicFlag {
			port = "8883"
		}
		addr = net.JoinHostPort(addr, port)
	}
	return addr
}

func options() []mqtt5.Option {
	opts := []mqtt5.Option{
		mqtt5.WithConnectTimeout(*timeoutFlag),
		mqtt5.WithResponseTimeout(*timeoutFlag),
	}

	if *clientFlag != "" {
		opts = append(opts, mqtt5.WithClientID(*clientFlag))
	}

	if *userFlag != "" {
		var password []byte
		if *passFlag != "" {
			b, err := os.ReadFile(*passFlag)
			if err != nil {
				log.Fatalf("%s: %s", name, err)
			}
			password = b
		}
		opts = append(opts, mqtt5.WithCredentials(*userFlag, password))
	}

	tlsConfig := &tls.Config{ServerName: *serverFlag}
	switch {
	case *quicFlag:
		opts = append(opts, mqtt5.WithDialer(mqtt5.NewQUICDialer(tlsConfig)))
	case *wsFlag:
		d := mqtt5.NewWSDialer()
		d.Dialer.TLSClientConfig = tlsConfig
		opts = append(opts, mqtt5.WithDialer(d))
	case *tlsFlag:
		opts = append(opts, mqtt5.WithTLS(tlsConfig))
	}

	if len(subscribeFlags) > 0 {
		subs := make([]mqtt5.Subscription, len(subscribeFlags))
		for i, filter := range subscribeFlags {
			subs[i] = mqtt5.Subscription{Filter: filter, QoS: byte(*qosFlag)}
		}
		opts = append(opts, mqtt5.WithSubscriptions(subs...))
	}

	if *verboseFlag {
		opts = append(opts, mqtt5.WithLogger(mqtt5.NewStdLogger(os.Stderr, mqtt5.LogLevelDebug)))
	}

	return opts
}

func publish(client *mqtt5.Client) error {
	payload, err := io.ReadAll(io.LimitReader(os.Stdin, payloadMax))
	if err != nil {
		return err
	}
	if len(payload) >= payloadMax {
		return fmt.Errorf("standard input reached %d byte limit", payloadMax)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	return client.Publish(ctx, &mqtt5.Message{
		Topic:   *publishFlag,
		Payload: payload,
		QoS:     byte(*qosFlag),
		Retain:  *retainFlag,
	})
}

func usage() {
	log.Printf("usage: %s [options] address\n\n"+
		"Connects to the MQTT broker at address. Without -tls, -ws or -quic\n"+
		"the connection is plain TCP and the default port is 1883.\n\n"+
		"options:", name)
	flag.PrintDefaults()
	log.Print("\nexamples:\n" +
		"\techo hello | " + name + " -publish chat/misc localhost\n" +
		"\t" + name + " -subscribe \"news/#\" -topic broker.example.com:1883\n")
}
