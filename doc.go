// Package mqtt5 implements an MQTT v5.0 client.
//
// The client owns its transport with a single driving goroutine; application
// goroutines interact through the Client façade, which is safe for concurrent
// use. Publish, subscribe and unsubscribe calls block until the broker
// acknowledges the operation or the response timeout expires.
//
// Basic usage:
//
//	client := mqtt5.New("broker.example.com:1883",
//		mqtt5.WithClientID("sensor-17"),
//		mqtt5.WithSubscriptions(mqtt5.Subscription{Filter: "conf/#"}),
//	)
//	if err := client.Start(ctx, false); err != nil {
//		// handle
//	}
//	defer client.Stop()
//
//	msg, err := client.ReadMessage(ctx)
package mqtt5
