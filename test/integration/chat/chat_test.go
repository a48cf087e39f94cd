// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

//go:build integration

package chat_test

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/relaybot/relaybot/internal/chat"
	"github.com/relaybot/relaybot/internal/command"
	"github.com/relaybot/relaybot/internal/command/handlers"
	"github.com/relaybot/relaybot/internal/config"
)

type client struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dial(addr string) *client {
	conn, err := net.Dial("tcp", addr)
	Expect(err).NotTo(HaveOccurred())
	c := &client{conn: conn, reader: bufio.NewReader(conn)}
	Expect(c.read()).To(ContainSubstring("Welcome"))
	return c
}

func (c *client) send(line string) {
	Expect(c.conn.SetWriteDeadline(time.Now().Add(time.Second))).To(Succeed())
	_, err := c.conn.Write([]byte(line + "\n"))
	Expect(err).NotTo(HaveOccurred())
}

func (c *client) read() string {
	Expect(c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))).To(Succeed())
	line, err := c.reader.ReadString('\n')
	Expect(err).NotTo(HaveOccurred())
	return strings.TrimRight(line, "\r\n")
}

var _ = Describe("Chat server with the bundled commands", func() {
	var (
		srv     *chat.Server
		cancel  context.CancelFunc
		stopped chan error
	)

	BeforeEach(func() {
		cfg := config.Default()
		mapping, err := handlers.DefaultMapping()
		Expect(err).NotTo(HaveOccurred())
		registry, err := command.Build(mapping, handlers.Groups(), cfg)
		Expect(err).NotTo(HaveOccurred())
		dispatcher, err := command.NewDispatcher(registry)
		Expect(err).NotTo(HaveOccurred())

		srv = chat.NewServer(chat.Options{
			Addr:            "127.0.0.1:0",
			Prefix:          cfg.Bot.Prefix,
			DispatchTimeout: cfg.Bot.DispatchTimeout,
		}, dispatcher)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		stopped = make(chan error, 1)
		go func() { stopped <- srv.Run(ctx) }()
		Eventually(srv.Ready).Should(BeTrue())
	})

	AfterEach(func() {
		cancel()
		Eventually(stopped, 2*time.Second).Should(Receive(BeNil()))
	})

	It("answers commands and ignores chatter", func() {
		c := dial(srv.Addr())
		defer c.conn.Close()

		c.send("good morning")
		c.send("?ping")
		Expect(c.read()).To(Equal("pong"))
	})

	It("shares one voting component between connections", func() {
		alice := dial(srv.Addr())
		defer alice.conn.Close()
		bob := dial(srv.Addr())
		defer bob.conn.Close()

		alice.send("nick alice")
		Expect(alice.read()).To(Equal("You are now known as alice."))
		bob.send("nick bob")
		Expect(bob.read()).To(Equal("You are now known as bob."))

		alice.send("?vote lunch pizza")
		Expect(alice.read()).To(Equal("Vote recorded: lunch -> pizza"))
		bob.send("?vote lunch pizza")
		Expect(bob.read()).To(Equal("Vote recorded: lunch -> pizza"))

		alice.send("?tally lunch --nocache")
		Expect(alice.read()).To(Equal("Tally for lunch (2 votes)"))
		Expect(alice.read()).To(Equal("pizza: 2"))
	})

	It("replies with usage for bad arguments", func() {
		c := dial(srv.Addr())
		defer c.conn.Close()

		c.send("?roll many")
		Expect(c.read()).To(Equal("Usage: ?roll [N]dM[+K...]"))

		c.send("?unknown")
		Expect(c.read()).To(Equal("Unknown command. Try ?help."))
	})
})
