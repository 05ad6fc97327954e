package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/juju/gomaasws"
)

var endpoint string
var sessionID string

func init() {
	fmt.Print("Enter endpoint (ws://host:5240/MAAS/ws): ")
	fmt.Scanf("%s", &endpoint)
	fmt.Print("Enter sessionid: ")
	fmt.Scanf("%s", &sessionID)
}

func main() {
	signer, err := gomaasws.NewSessionSigner(sessionID, "")
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	controller, err := gomaasws.NewController(ctx, gomaasws.ControllerArgs{
		Endpoint: endpoint,
		Signer:   signer,
	})
	if err != nil {
		panic(err)
	}
	defer controller.Close()
	fmt.Printf("Connected, API version %s\n", controller.APIVersion())

	subnets := controller.Subnets()
	machines := controller.Machines()
	fmt.Println("Loading subnets and machines...")
	if err := controller.LoadManagers(ctx, subnets, machines); err != nil {
		panic(err)
	}
	for _, subnet := range subnets.Subnets() {
		fmt.Printf("  subnet %d: %s (%s)\n", subnet.ID(), subnet.CIDR(), subnet.Name())
	}
	for _, machine := range machines.Machines() {
		fmt.Printf("  machine %s: %s [%s]\n", machine.SystemID(), machine.Hostname(), machine.Status())
	}

	fmt.Println("Watching for machine changes, interrupt to stop...")
	unsubscribe := machines.Observe(func(change gomaasws.Change) {
		fmt.Printf("  %s: machine %s\n", change.Action, change.Object.StringField("hostname"))
	})
	defer unsubscribe()

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	<-interrupted
}
