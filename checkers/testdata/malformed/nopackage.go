func orphan() {}
