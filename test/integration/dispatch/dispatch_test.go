// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

//go:build integration

package dispatch_test

import (
	"context"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/relaybot/relaybot/internal/command"
	"github.com/relaybot/relaybot/internal/command/handlers"
	"github.com/relaybot/relaybot/internal/config"
)

// scenarioActions records what its roll handler receives.
type scenarioActions struct {
	mu       sync.Mutex
	messages []string
	noCache  []bool
}

func (a *scenarioActions) Roll(_ context.Context, req *command.Request) (command.Reply, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, req.Message)
	a.noCache = append(a.noCache, req.Options.NoCache)
	return command.TextReply("rolled:" + req.Message), nil
}

var _ = Describe("Dispatching through a built registry", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("the roll scenario", func() {
		var (
			dispatcher *command.Dispatcher
			registry   *command.Registry
		)

		BeforeEach(func() {
			groups := []command.Group{{
				ID: "actions",
				Classes: []command.Class{{
					Name: "Actions",
					New: func(*config.Config) (command.Component, error) {
						return &scenarioActions{}, nil
					},
					Methods: map[string]command.Method{
						"roll": command.Bind((*scenarioActions).Roll),
					},
				}},
			}}
			mapping := command.Mapping{"?roll": {Handler: "Actions.roll", Group: "actions"}}

			var err error
			registry, err = command.Build(mapping, groups, config.Default())
			Expect(err).NotTo(HaveOccurred())
			dispatcher, err = command.NewDispatcher(registry)
			Expect(err).NotTo(HaveOccurred())
		})

		It("strips the cache flag and reports it to the handler", func() {
			reply, err := dispatcher.Dispatch(ctx, "?roll", "d20 --nocache")
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("rolled:d20"))

			inst, ok := registry.Instance("Actions")
			Expect(ok).To(BeTrue())
			actions := inst.(*scenarioActions)
			Expect(actions.messages).To(Equal([]string{"d20"}))
			Expect(actions.noCache).To(Equal([]bool{true}))
		})

		It("leaves the message alone without the flag", func() {
			reply, err := dispatcher.Dispatch(ctx, "?roll", " d20 ")
			Expect(err).NotTo(HaveOccurred())
			Expect(reply.Text).To(Equal("rolled: d20 "))
		})

		It("reports unknown commands without invoking anything", func() {
			_, err := dispatcher.Dispatch(ctx, "?rol", "d20")
			Expect(command.IsUnknownCommand(err)).To(BeTrue())

			inst, _ := registry.Instance("Actions")
			Expect(inst.(*scenarioActions).messages).To(BeEmpty())
		})
	})

	Describe("the bundled components", func() {
		var (
			dispatcher *command.Dispatcher
			registry   *command.Registry
		)

		BeforeEach(func() {
			mapping, err := handlers.DefaultMapping()
			Expect(err).NotTo(HaveOccurred())
			registry, err = command.Build(mapping, handlers.Groups(), config.Default())
			Expect(err).NotTo(HaveOccurred())
			dispatcher, err = command.NewDispatcher(registry)
			Expect(err).NotTo(HaveOccurred())
		})

		dispatch := func(id, message, author string) (string, error) {
			reply, err := dispatcher.DispatchRequest(ctx, &command.Request{
				Command: id,
				Message: message,
				Author:  author,
			})
			return reply.String(), err
		}

		It("constructs exactly one instance per owning class", func() {
			Expect(registry.Classes()).To(Equal([]string{"Actions", "Utility", "Voting"}))

			vote, ok := registry.Lookup("?vote")
			Expect(ok).To(BeTrue())
			tally, ok := registry.Lookup("?tally")
			Expect(ok).To(BeTrue())
			Expect(vote.Class).To(Equal("Voting"))
			Expect(tally.Class).To(Equal(vote.Class))
		})

		It("shares state between commands of the same component", func() {
			_, err := dispatch("?vote", "lunch pizza", "alice")
			Expect(err).NotTo(HaveOccurred())
			_, err = dispatch("?vote", "lunch tacos", "bob")
			Expect(err).NotTo(HaveOccurred())

			out, err := dispatch("?tally", "lunch", "carol")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("Tally for lunch (2 votes)\npizza: 1\ntacos: 1"))
		})

		It("refreshes the cached tally after a vote and on --nocache", func() {
			_, err := dispatch("?vote", "lunch pizza", "alice")
			Expect(err).NotTo(HaveOccurred())
			first, err := dispatch("?tally", "lunch", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(Equal("Tally for lunch (1 votes)\npizza: 1"))

			_, err = dispatch("?vote", "lunch pizza", "bob")
			Expect(err).NotTo(HaveOccurred())

			after, err := dispatch("?tally", "lunch", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal("Tally for lunch (2 votes)\npizza: 2"))

			fresh, err := dispatch("?tally", "lunch --nocache", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh).To(Equal(after))
		})

		It("gives the help command the declarative mapping", func() {
			out, err := dispatch("?help", "?tally", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("?tally - Show poll results (add --nocache to refresh)\nUsage: ?tally <topic>"))

			out, err = dispatch("?help", "?v*", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("?vote"))
			Expect(out).NotTo(ContainSubstring("?roll"))
		})

		It("turns handler refusals into chat messages", func() {
			_, err := dispatch("?tally", "nothing", "")
			Expect(err).To(HaveOccurred())
			Expect(command.UserMessage(err)).To(Equal(`No poll named "nothing".`))
		})

		It("handles concurrent votes on one instance", func() {
			var wg sync.WaitGroup
			for i := range 50 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := dispatch("?vote", "color blue", fmt.Sprintf("voter%d", i))
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()

			out, err := dispatch("?tally", "color --nocache", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HavePrefix("Tally for color (50 votes)"))
		})
	})

	Describe("building from a mapping with an unknown group", func() {
		mapping := command.Mapping{
			"?ping": {Handler: "Actions.ping", Group: "actions"},
			"?quiz": {Handler: "Quiz.ask", Group: "ifgc"},
		}

		It("fails by default", func() {
			_, err := command.Build(mapping, handlers.Groups(), config.Default())
			Expect(command.IsResolutionError(err)).To(BeTrue())
		})

		It("skips the entry when asked to and still shows it to help", func() {
			registry, err := command.Build(mapping, handlers.Groups(), config.Default(), command.WithSkipUnknownGroups())
			Expect(err).NotTo(HaveOccurred())
			Expect(registry.Has("?ping")).To(BeTrue())
			Expect(registry.Has("?quiz")).To(BeFalse())
			Expect(registry.Mapping()).To(HaveKey("?quiz"))
		})
	})
})
