package primitives

import "hash/fnv"

type Filepath string

func (f Filepath) Hash() IndexID {
	h := fnv.New64a()
	h.Write([]byte(f))
	return IndexID(h.Sum64())
}
