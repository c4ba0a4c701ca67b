package e2e_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tripagent/tripagent/citest/testutil"
	"github.com/tripagent/tripagent/internal/event"
	"github.com/tripagent/tripagent/internal/store"
	"github.com/tripagent/tripagent/pkg/types"
)

var _ = Describe("Turn Workflows", func() {
	var st *store.Store

	BeforeEach(func() {
		st = testServer.NewStore()
	})

	Describe("Streaming Turn", func() {
		It("should reconstruct a full flight search turn", func() {
			err := st.SendMessage(ctx, "Find flights from JFK to CDG")
			Expect(err).NotTo(HaveOccurred())

			msgs := st.Messages()
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal(types.RoleUser))
			Expect(msgs[1].Role).To(Equal(types.RoleAgent))

			result := st.Result()
			Expect(result).NotTo(BeNil())
			Expect(result.Kind).To(Equal(types.ResultFlights))
			Expect(result.Len()).To(Equal(2))

			Expect(msgs[1].Meta).NotTo(BeNil())
			Expect(msgs[1].Meta.Tools).To(HaveLen(1))
			Expect(msgs[1].Meta.Tools[0].Status).To(Equal(types.ToolCompleted))
		})

		It("should clear transient turn state after completion", func() {
			Expect(st.SendMessage(ctx, "hotels near the Louvre please")).To(Succeed())

			Expect(st.IsSending()).To(BeFalse())
			Expect(st.IsStreaming()).To(BeFalse())
			Expect(st.Thinking()).To(BeEmpty())
			Expect(st.Tools()).To(BeEmpty())
		})

		It("should publish turn lifecycle events in order", func() {
			var order []event.EventType
			unsub := st.Bus().SubscribeAll(func(ev event.Event) {
				order = append(order, ev.Type)
			})
			defer unsub()

			Expect(st.SendMessage(ctx, "things to see in Paris")).To(Succeed())

			Expect(order[0]).To(Equal(event.MessageAdded))
			Expect(order[1]).To(Equal(event.TurnStarted))
			Expect(order[len(order)-1]).To(Equal(event.TurnFinished))
		})
	})

	Describe("Non-Streaming Turn", func() {
		It("should deliver the terminal payload without tool progress", func() {
			Expect(st.InvokeMessage(ctx, "where should we eat dinner?")).To(Succeed())

			result := st.Result()
			Expect(result).NotTo(BeNil())
			Expect(result.Kind).To(Equal(types.ResultRestaurants))

			msgs := st.Messages()
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[1].Meta.Tools).To(BeEmpty())
		})
	})

	Describe("Conversation Turn", func() {
		It("should keep the previous structured result", func() {
			Expect(st.SendMessage(ctx, "find flights to Paris")).To(Succeed())
			Expect(st.Result()).NotTo(BeNil())

			Expect(st.SendMessage(ctx, "great, thank you!")).To(Succeed())

			Expect(st.Result()).NotTo(BeNil())
			Expect(st.Result().Kind).To(Equal(types.ResultFlights))
			Expect(st.Messages()).To(HaveLen(4))
		})
	})
})

var _ = Describe("Wire Variants", func() {
	run := func(srv *testutil.TestServer) {
		defer srv.Stop()

		st := srv.NewStore()
		Expect(st.SendMessage(ctx, "plan a 3 day itinerary for Paris")).To(Succeed())

		result := st.Result()
		Expect(result).NotTo(BeNil())
		Expect(result.Kind).To(Equal(types.ResultItinerary))
		Expect(result.Itinerary).NotTo(BeNil())
		Expect(result.Itinerary.Days).To(HaveLen(3))
	}

	It("should decode SSE-framed streams", func() {
		run(testutil.StartTestServer(testutil.WithSSEFraming()))
	})

	It("should decode double-encoded frames", func() {
		run(testutil.StartTestServer(testutil.WithDoubleEncoding()))
	})

	It("should decode SSE-framed double-encoded streams with slow frames", func() {
		run(testutil.StartTestServer(
			testutil.WithSSEFraming(),
			testutil.WithDoubleEncoding(),
			testutil.WithFrameDelay(5*time.Millisecond),
		))
	})
})
