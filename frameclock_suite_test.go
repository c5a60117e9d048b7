package main_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gexec"
)

func TestFrameclock(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Frameclock Suite")
}

var frameclockPath string
var _ = BeforeSuite(func() {
	var err error
	frameclockPath, err = gexec.Build("github.com/loopworks/frameclock")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(gexec.CleanupBuildArtifacts)
})
