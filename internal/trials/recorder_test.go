package trials

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

// syncDispatcher runs work inline so expectations can be checked directly.
type syncDispatcher struct {
	errs []error
}

func (d *syncDispatcher) Go(name string, fn func(ctx context.Context) error) bool {
	if err := fn(context.Background()); err != nil {
		d.errs = append(d.errs, err)
	}
	return true
}

var _ = Describe("Recorder", func() {
	var (
		mockCtrl   *gomock.Controller
		store      *MockStore
		dispatcher *syncDispatcher
		log        *Log
		recorder   *Recorder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		store = NewMockStore(mockCtrl)
		dispatcher = &syncDispatcher{}
		log = NewLog()
		recorder = NewRecorder(log, store, dispatcher, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should commit and forward a trial", func() {
		store.EXPECT().Add(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, t Trial) error {
				Expect(t.Number).To(Equal(1))
				Expect(t.Period).To(BeNumerically("~", 1.42, 1e-9))
				return nil
			})

		trial, err := recorder.Commit(Measurement{Oscillations: 5, ElapsedSeconds: 7.1, LengthCm: 50})

		Expect(err).NotTo(HaveOccurred())
		Expect(trial.Number).To(Equal(1))
		Expect(trial.LengthCm).To(Equal(50))
		Expect(log.Len()).To(Equal(1))
	})

	It("should keep the local trial when the store fails", func() {
		store.EXPECT().Add(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

		trial, err := recorder.Commit(Measurement{Oscillations: 2, ElapsedSeconds: 4})

		Expect(err).NotTo(HaveOccurred())
		Expect(trial.Period).To(Equal(2.0))
		Expect(log.Trials()).To(HaveLen(1))
		Expect(dispatcher.errs).To(HaveLen(1))
	})

	It("should keep the local trial when the dispatcher drops the call", func() {
		dropping := NewMockDispatcher(mockCtrl)
		dropping.EXPECT().Go("add_data", gomock.Any()).Return(false)
		recorder = NewRecorder(log, store, dropping, nil)

		_, err := recorder.Commit(Measurement{Oscillations: 1, ElapsedSeconds: 1})

		Expect(err).NotTo(HaveOccurred())
		Expect(log.Len()).To(Equal(1))
	})

	It("should reject a non-positive target without touching the store", func() {
		_, err := recorder.Commit(Measurement{Oscillations: 0, ElapsedSeconds: 3})

		Expect(err).To(MatchError(ErrInvalidTarget))
		Expect(log.Len()).To(Equal(0))
	})

	It("should clear locally and remotely on reset", func() {
		store.EXPECT().Add(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		store.EXPECT().Clear(gomock.Any()).Return(nil).Times(2)

		_, _ = recorder.Commit(Measurement{Oscillations: 1, ElapsedSeconds: 1})
		_, _ = recorder.Commit(Measurement{Oscillations: 1, ElapsedSeconds: 1})
		recorder.Reset()
		recorder.Reset()

		Expect(log.Len()).To(Equal(0))

		store.EXPECT().Add(gomock.Any(), gomock.Any()).Return(nil)
		trial, err := recorder.Commit(Measurement{Oscillations: 1, ElapsedSeconds: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(trial.Number).To(Equal(1))
	})

	It("should work without a store", func() {
		recorder = NewRecorder(log, nil, nil, nil)

		trial, err := recorder.Commit(Measurement{Oscillations: 4, ElapsedSeconds: 8})
		Expect(err).NotTo(HaveOccurred())
		Expect(trial.Period).To(Equal(2.0))
		recorder.Reset()
		Expect(log.Len()).To(Equal(0))
	})
})
