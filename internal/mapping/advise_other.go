//go:build !unix

package mapping

func adviseSequential([]byte) {}
