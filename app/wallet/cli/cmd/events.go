package cmd

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// eventsCmd tails the node's event stream over a websocket until
// interrupted.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail the node's event stream",
	Run:   eventsRun,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}

func eventsRun(cmd *cobra.Command, args []string) {
	u, err := url.Parse(getNodeURL())
	if err != nil {
		log.Fatal(err)
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/v1/events"

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			fmt.Println(string(msg))
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		<-done
	}
}
