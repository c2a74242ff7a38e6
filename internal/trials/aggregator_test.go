package trials

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

func fill(log *Log, periods ...float64) {
	for _, p := range periods {
		_, err := log.Append(Measurement{Oscillations: 1, ElapsedSeconds: p})
		Expect(err).NotTo(HaveOccurred())
	}
}

var _ = Describe("Aggregator", func() {
	var (
		mockCtrl   *gomock.Controller
		store      *MockStore
		log        *Log
		aggregator *Aggregator
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		store = NewMockStore(mockCtrl)
		log = NewLog()
		aggregator = NewAggregator(log, store, 0, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should fall back to the local mean when the store is unreachable", func() {
		fill(log, 2.00, 2.10, 1.90)
		store.EXPECT().Average(gomock.Any()).Return(Summary{}, errors.New("dial tcp: refused"))

		result := aggregator.Average(context.Background())

		Expect(result.Average).To(BeNumerically("~", 2.00, 1e-9))
		Expect(result.Count).To(Equal(3))
		Expect(result.Source).To(Equal(SourceLocal))
	})

	It("should trust the store when counts agree", func() {
		fill(log, 2.00, 2.10, 1.90)
		store.EXPECT().Average(gomock.Any()).
			Return(Summary{Status: StatusSuccess, Average: 2.05, Count: 3}, nil)

		result := aggregator.Average(context.Background())

		Expect(result).To(Equal(Result{Average: 2.05, Count: 3, Source: SourceExternal}))
	})

	It("should distrust the store when counts disagree", func() {
		fill(log, 2.00, 2.10)
		store.EXPECT().Average(gomock.Any()).
			Return(Summary{Status: StatusSuccess, Average: 2.05, Count: 3}, nil)

		result := aggregator.Average(context.Background())

		Expect(result.Source).To(Equal(SourceLocal))
		Expect(result.Count).To(Equal(2))
		Expect(result.Average).To(BeNumerically("~", 2.05, 1e-9))
	})

	It("should distrust a store reply without success status", func() {
		fill(log, 1.5)
		store.EXPECT().Average(gomock.Any()).
			Return(Summary{Status: "error", Average: 9, Count: 1}, nil)

		result := aggregator.Average(context.Background())

		Expect(result).To(Equal(Result{Average: 1.5, Count: 1, Source: SourceLocal}))
	})

	It("should report an empty result for an empty log without asking the store", func() {
		store.EXPECT().Average(gomock.Any()).Times(0)

		result := aggregator.Average(context.Background())

		Expect(result.Empty()).To(BeTrue())
		Expect(result.Source).To(Equal(SourceLocal))
	})

	It("should work without a store", func() {
		aggregator = NewAggregator(log, nil, 0, nil)
		fill(log, 3, 5)

		Expect(aggregator.Average(context.Background())).
			To(Equal(Result{Average: 4, Count: 2, Source: SourceLocal}))
	})
})
