package e2e_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tripagent/tripagent/internal/identity"
	"github.com/tripagent/tripagent/internal/store"
	"github.com/tripagent/tripagent/pkg/types"
)

var _ = Describe("Session Workflows", func() {
	var st *store.Store

	BeforeEach(func() {
		st = testServer.NewStore()
	})

	Describe("Session Identity", func() {
		It("should start with a valid active session", func() {
			session := st.Session()
			Expect(session.Active).To(BeTrue())
			Expect(identity.ValidSessionID(session.ID)).To(BeTrue())
			Expect(len(session.ID)).To(BeNumerically(">=", types.MinSessionIDLength))
		})

		It("should keep the session ID stable across turns", func() {
			before := st.Session().ID

			Expect(st.SendMessage(ctx, "find flights to Rome")).To(Succeed())
			Expect(st.SendMessage(ctx, "and hotels too")).To(Succeed())

			Expect(st.Session().ID).To(Equal(before))
		})
	})

	Describe("New Session", func() {
		It("should discard conversation state and mint a fresh ID", func() {
			Expect(st.SendMessage(ctx, "find flights to Rome")).To(Succeed())
			Expect(st.Messages()).NotTo(BeEmpty())
			Expect(st.Result()).NotTo(BeNil())

			before := st.Session().ID
			session := st.StartNewSession()

			Expect(session.ID).NotTo(Equal(before))
			Expect(session.Active).To(BeTrue())
			Expect(st.Messages()).To(BeEmpty())
			Expect(st.Result()).To(BeNil())
		})
	})

	Describe("Sign Out", func() {
		It("should clear the session and reject further sends", func() {
			Expect(st.SendMessage(ctx, "find flights to Rome")).To(Succeed())

			st.SetAuth(nil)

			Expect(st.Session().Active).To(BeFalse())
			Expect(st.Messages()).To(BeEmpty())
			Expect(st.SendMessage(ctx, "hello?")).To(HaveOccurred())
		})
	})
})
