// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package console_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/holomush/holologin/internal/form"
	"github.com/holomush/holologin/internal/login"
)

var _ = Describe("Login flow", func() {
	Describe("signing in", func() {
		It("authenticates the seeded account and shows its name", func() {
			env := newFlowEnv("en", nil)

			env.run("test@test.com\n123456\nquit\n")

			Expect(env.out.String()).To(ContainSubstring("Welcome, Tester."))
			state := env.ctrl.Snapshot()
			Expect(state.Session.Active).To(BeTrue())
			Expect(state.Session.Token.DisplayName).To(Equal("Tester"))
			Expect(state.Session.Token.Token).NotTo(BeEmpty())
			Expect(state.Phase).To(Equal(form.PhaseAuthenticated))
			Expect(env.dev.SessionCount()).To(Equal(1))
			Expect(env.attempts("ok")).To(BeNumerically("==", 1))
		})

		It("does not contact the endpoint when fields are blank", func() {
			env := newFlowEnv("en", nil)

			env.run("   \n\n")

			Expect(env.out.String()).To(ContainSubstring("Please enter your ID."))
			Expect(env.out.String()).To(ContainSubstring("Please enter your password."))
			Expect(testutil.CollectAndCount(env.metrics.LoginAttempts)).To(Equal(0))
		})
	})

	DescribeTable("rejected logins",
		func(identifier, secret string, wantCode login.ErrorCode, wantMessage string) {
			env := newFlowEnv("en", nil)

			env.run(identifier + "\n" + secret + "\n")

			Expect(env.out.String()).To(ContainSubstring(wantMessage))
			state := env.ctrl.Snapshot()
			Expect(state.Session.Active).To(BeFalse())
			Expect(state.Phase).To(Equal(form.PhaseFailed))
			Expect(state.Identifier).To(Equal(identifier), "form keeps values after a failure")
			Expect(env.attempts(string(wantCode))).To(BeNumerically("==", 1))
		},
		Entry("wrong password", "test@test.com", "nope", login.WrongCredentials, "Incorrect ID or password."),
		Entry("unknown user", "nobody@test.com", "123456", login.UserNotFound, "Login failed. Please try again."),
		Entry("blocked user", "blocked@test.com", "123456", login.UserBlocked, "Login failed. Please try again."),
		Entry("robot suspected", "robot@test.com", "123456", login.RobotSuspected, "Login failed. Please try again."),
		Entry("empty token", "empty@test.com", "123456", login.EmptyTokenResponse, "Login failed. Please try again."),
	)

	It("uses the configured locale", func() {
		env := newFlowEnv("ko", nil)

		env.run("test@test.com\nnope\n")

		Expect(env.out.String()).To(ContainSubstring("잘못된 아이디 또는 비밀번호입니다"))
	})

	It("reports Unknown when the endpoint is unreachable", func() {
		env := newFlowEnv("en", nil)
		env.server.Close()

		env.run("test@test.com\n123456\n")

		Expect(env.out.String()).To(ContainSubstring("Login failed. Please try again."))
		Expect(env.attempts(string(login.Unknown))).To(BeNumerically("==", 1))
	})

	Describe("signing out", func() {
		It("ends the session and resets the form", func() {
			env := newFlowEnv("en", nil)

			env.run("test@test.com\n123456\nlogout\n")

			Expect(env.out.String()).To(ContainSubstring("Signed out."))
			state := env.ctrl.Snapshot()
			Expect(state.Session.Active).To(BeFalse())
			Expect(state.Session.Token).To(BeNil())
			Expect(state.Identifier).To(BeEmpty())
			Expect(state.Secret).To(BeEmpty())
			Expect(env.dev.SessionCount()).To(BeZero())
			Expect(testutil.ToFloat64(env.metrics.LogoutTotal.WithLabelValues("true"))).To(BeNumerically("==", 1))
		})

		It("stays signed in without an error when the endpoint refuses", func() {
			// No cookie jar: the endpoint cannot find the session.
			env := newFlowEnv("en", &http.Client{})

			Expect(env.ctrl.EditIdentifier("test@test.com")).To(Succeed())
			Expect(env.ctrl.EditSecret("123456")).To(Succeed())
			Expect(env.ctrl.Submit(context.Background())).To(Succeed())

			Expect(env.ctrl.Logout(context.Background())).To(Succeed())

			state := env.ctrl.Snapshot()
			Expect(state.Session.Active).To(BeTrue())
			Expect(state.Phase).To(Equal(form.PhaseAuthenticated))
			Expect(state.Errors.IsEmpty()).To(BeTrue())
			Expect(state.Loading).To(BeFalse())
			Expect(env.dev.SessionCount()).To(Equal(1))
			Expect(testutil.ToFloat64(env.metrics.LogoutTotal.WithLabelValues("false"))).To(BeNumerically("==", 1))
		})
	})
})
